package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rcauth-eu/keyportal/internal/domain"
	apperrors "github.com/rcauth-eu/keyportal/internal/errors"
)

// TransactionStore reads the authorization pipeline's transaction records.
// This side never writes them.
type TransactionStore struct {
	db *pgxpool.Pool
}

func NewTransactionStore(db *pgxpool.Pool) *TransactionStore {
	return &TransactionStore{db: db}
}

var _ domain.TransactionStore = (*TransactionStore)(nil)

func (s *TransactionStore) Get(ctx context.Context, token domain.AccessToken) (*domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var t domain.Transaction
	err := s.db.QueryRow(ctx, queryGetTransaction, string(token)).
		Scan(&t.Token, &t.ClientID, &t.Username, &t.AccessTokenValid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan transaction row: %w", err)
	}
	return &t, nil
}

// ClientStore reads the authorization pipeline's registered clients.
type ClientStore struct {
	db *pgxpool.Pool
}

func NewClientStore(db *pgxpool.Pool) *ClientStore {
	return &ClientStore{db: db}
}

var _ domain.ClientStore = (*ClientStore)(nil)

func (s *ClientStore) Get(ctx context.Context, id string) (*domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var c domain.Client
	err := s.db.QueryRow(ctx, queryGetClient, id).
		Scan(&c.ID, &c.SecretDigest, &c.Approved)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan client row: %w", err)
	}
	return &c, nil
}

// Health pings the database. Used by the health endpoint.
func Health(ctx context.Context, db *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.Ping(ctx)
}
