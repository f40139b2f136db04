// Package persistence contains the PostgreSQL adapters behind the domain
// repository interfaces, plus in-memory counterparts for development and
// tests.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rcauth-eu/keyportal/internal/domain"
	apperrors "github.com/rcauth-eu/keyportal/internal/errors"
	psql "github.com/rcauth-eu/keyportal/pkg/postgres"
)

const queryTimeout = 3 * time.Second

// pgUniqueViolation is the SQLSTATE for a unique constraint violation.
const pgUniqueViolation = "23505"

// KeyStore is the PostgreSQL implementation of domain.KeyRepository. The
// ssh_keys table carries UNIQUE(username, label) and UNIQUE(pub_key), so the
// invariants hold even against writers outside this process; InsertIfAbsent
// additionally serializes per user for quota and label allocation.
type KeyStore struct {
	db        *pgxpool.Pool
	txManager *TransactionManager[*domain.SSHKey]
	logger    *slog.Logger
}

func NewKeyStore(db *pgxpool.Pool, logger *slog.Logger) *KeyStore {
	return &KeyStore{
		db:        db,
		txManager: NewTransactionManager[*domain.SSHKey](logger),
		logger:    logger,
	}
}

var _ domain.KeyRepository = (*KeyStore)(nil)

func (s *KeyStore) FindByPublicKey(ctx context.Context, publicKey string) (*domain.SSHKey, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return scanKey(s.db.QueryRow(ctx, queryFindByPublicKey, publicKey))
}

func (s *KeyStore) FindByUserAndLabel(ctx context.Context, username, label string) (*domain.SSHKey, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return scanKey(s.db.QueryRow(ctx, queryFindByUserAndLabel, username, label))
}

func (s *KeyStore) ListByUser(ctx context.Context, username string) ([]*domain.SSHKey, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := s.db.Query(ctx, queryListByUser, username)
	if err != nil {
		return nil, fmt.Errorf("failed to query keys: %w", err)
	}
	defer rows.Close()

	keys := make([]*domain.SSHKey, 0, 8)
	for rows.Next() {
		key, err := scanKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	return keys, nil
}

// InsertIfAbsent runs the uniqueness check, the quota check, label allocation
// and the insert as one serializable transaction under a per-user advisory
// lock. Races on the public key across users are arbitrated by the unique
// constraint.
func (s *KeyStore) InsertIfAbsent(ctx context.Context, key *domain.SSHKey, maxKeys int) (*domain.SSHKey, error) {
	return s.txManager.ExecuteInTransaction(ctx, s.db, func(ctx context.Context, tx pgx.Tx) (*domain.SSHKey, error) {
		if err := psql.AcquireUserLock(ctx, tx, key.Username); err != nil {
			return nil, err
		}

		var exists bool
		if err := tx.QueryRow(ctx, queryExistsByPublicKey, key.PublicKey).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check public key uniqueness: %w", err)
		}
		if exists {
			return nil, apperrors.ErrDuplicateKey
		}

		var count int
		if err := tx.QueryRow(ctx, queryCountByUser, key.Username).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count keys: %w", err)
		}
		if maxKeys > 0 && count >= maxKeys {
			return nil, fmt.Errorf("%w (=%d), cannot add more", apperrors.ErrQuotaExceeded, maxKeys)
		}

		stored := *key
		if stored.Label == "" {
			labels, err := listLabels(ctx, tx, key.Username)
			if err != nil {
				return nil, err
			}
			stored.Label = domain.NextLabel(labels)
		}

		if _, err := tx.Exec(ctx, queryInsertKey, stored.Username, stored.Label, stored.PublicKey, stored.Description); err != nil {
			if isUniqueViolation(err) {
				return nil, apperrors.ErrDuplicateKey
			}
			return nil, fmt.Errorf("failed to insert key: %w", err)
		}
		return &stored, nil
	})
}

func (s *KeyStore) Update(ctx context.Context, key *domain.SSHKey) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	result, err := s.db.Exec(ctx, queryUpdateKey, key.PublicKey, key.Description, key.Username, key.Label)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicateKey
		}
		return fmt.Errorf("failed to update key: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *KeyStore) Delete(ctx context.Context, username, label string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	result, err := s.db.Exec(ctx, queryDeleteKey, username, label)
	if err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanKey(row pgx.Row) (*domain.SSHKey, error) {
	var key domain.SSHKey
	err := row.Scan(&key.Username, &key.Label, &key.PublicKey, &key.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan key row: %w", err)
	}
	return &key, nil
}

func listLabels(ctx context.Context, tx pgx.Tx, username string) ([]string, error) {
	rows, err := tx.Query(ctx, queryListLabels, username)
	if err != nil {
		return nil, fmt.Errorf("failed to query labels: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
