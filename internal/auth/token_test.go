package auth_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcauth-eu/keyportal/internal/auth"
	"github.com/rcauth-eu/keyportal/internal/domain"
	apperrors "github.com/rcauth-eu/keyportal/internal/errors"
	"github.com/rcauth-eu/keyportal/internal/infra/persistence"
)

// freshToken builds an access token whose final segment is a millisecond
// creation timestamp, the way the token issuer mints them.
func freshToken(age time.Duration) string {
	ts := time.Now().Add(-age).UnixMilli()
	return fmt.Sprintf("https://portal.example/oauth2/accessToken/ab12cd34/%d", ts)
}

func TestTokenGateVerify(t *testing.T) {
	store := persistence.NewMemoryTransactionStore()
	gate := auth.NewTokenGate(store, 15*time.Minute, discardLogger())
	ctx := context.Background()

	valid := freshToken(0)
	store.Put(&domain.Transaction{
		Token:            domain.AccessToken(valid),
		ClientID:         testClientID,
		Username:         "jdoe",
		AccessTokenValid: true,
	})

	revoked := freshToken(time.Minute)
	store.Put(&domain.Transaction{
		Token:            domain.AccessToken(revoked),
		ClientID:         testClientID,
		Username:         "jdoe",
		AccessTokenValid: false,
	})

	t.Run("bearer header", func(t *testing.T) {
		transaction, err := gate.Verify(ctx, []string{valid}, "")
		require.NoError(t, err)
		assert.Equal(t, "jdoe", transaction.Username)
		assert.Equal(t, testClientID, transaction.ClientID)
	})

	t.Run("parameter fallback", func(t *testing.T) {
		transaction, err := gate.Verify(ctx, nil, valid)
		require.NoError(t, err)
		assert.Equal(t, "jdoe", transaction.Username)
	})

	t.Run("only first bearer value is honored", func(t *testing.T) {
		transaction, err := gate.Verify(ctx, []string{valid, "garbage"}, "")
		require.NoError(t, err)
		assert.Equal(t, "jdoe", transaction.Username)

		_, err = gate.Verify(ctx, []string{"garbage", valid}, "")
		assert.ErrorIs(t, err, apperrors.ErrMalformedToken)
	})

	t.Run("header wins over parameter", func(t *testing.T) {
		_, err := gate.Verify(ctx, []string{freshToken(time.Hour)}, valid)
		assert.ErrorIs(t, err, apperrors.ErrExpiredToken)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := gate.Verify(ctx, nil, "")
		assert.ErrorIs(t, err, apperrors.ErrMissingToken)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := gate.Verify(ctx, []string{"https://portal.example/accessToken/nodigits"}, "")
		assert.ErrorIs(t, err, apperrors.ErrMalformedToken)
	})

	t.Run("expired token", func(t *testing.T) {
		_, err := gate.Verify(ctx, []string{freshToken(16 * time.Minute)}, "")
		assert.ErrorIs(t, err, apperrors.ErrExpiredToken)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := gate.Verify(ctx, []string{freshToken(time.Second)}, "")
		assert.ErrorIs(t, err, apperrors.ErrUnknownToken)
	})

	t.Run("invalidated transaction", func(t *testing.T) {
		_, err := gate.Verify(ctx, []string{revoked}, "")
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})
}
