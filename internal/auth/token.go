package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/rcauth-eu/keyportal/internal/domain"
	apperrors "github.com/rcauth-eu/keyportal/internal/errors"
)

// DefaultTokenLifetime bounds the age of an access token when the
// configuration does not say otherwise.
const DefaultTokenLifetime = 15 * time.Minute

// TokenGate extracts and validates the bearer access token of a request and
// resolves it to its transaction. It performs read-only lookups only.
type TokenGate struct {
	transactions domain.TransactionStore
	lifetime     time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

func NewTokenGate(transactions domain.TransactionStore, lifetime time.Duration, logger *slog.Logger) *TokenGate {
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}
	return &TokenGate{
		transactions: transactions,
		lifetime:     lifetime,
		now:          time.Now,
		logger:       logger,
	}
}

// Verify picks the access token from the Bearer authorization tokens (only
// the very first one is taken, duplicates are ignored) or, failing that, the
// access_token request parameter, checks its embedded timestamp for
// freshness, and returns the transaction it belongs to.
func (g *TokenGate) Verify(ctx context.Context, bearerTokens []string, tokenParam string) (*domain.Transaction, error) {
	raw := tokenParam
	if len(bearerTokens) > 0 {
		raw = bearerTokens[0]
	}
	if raw == "" {
		return nil, apperrors.ErrMissingToken
	}

	issued, err := tokenIssuedAt(raw)
	if err != nil {
		return nil, err
	}
	if g.now().Sub(issued) > g.lifetime {
		return nil, apperrors.ErrExpiredToken
	}

	transaction, err := g.transactions.Get(ctx, domain.AccessToken(raw))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnknownToken
		}
		return nil, fmt.Errorf("%w: looking up transaction: %w", apperrors.ErrStorage, err)
	}
	if !transaction.AccessTokenValid {
		return nil, apperrors.ErrInvalidToken
	}
	return transaction, nil
}

// tokenIssuedAt decodes the creation timestamp embedded in a token: the
// final '/'-separated segment is a decimal millisecond epoch value.
func tokenIssuedAt(raw string) (time.Time, error) {
	seg := raw
	if idx := strings.LastIndexByte(raw, '/'); idx >= 0 {
		seg = raw[idx+1:]
	}
	ms, err := strconv.ParseInt(seg, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: no timestamp segment", apperrors.ErrMalformedToken)
	}
	return time.UnixMilli(ms), nil
}
