package auth_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcauth-eu/keyportal/internal/auth"
	"github.com/rcauth-eu/keyportal/internal/domain"
	apperrors "github.com/rcauth-eu/keyportal/internal/errors"
	"github.com/rcauth-eu/keyportal/internal/infra/persistence"
)

const testClientID = "https://idp.example/clients/abc"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSplitCredentials(t *testing.T) {
	tests := []struct {
		name        string
		paramID     string
		paramSecret string
		tokens      []string
		wantOutcome auth.Outcome
		wantID      string
		wantSecret  string
		wantDropped int
	}{
		{
			name:        "uri and plain token",
			tokens:      []string{testClientID, "s3cr3t"},
			wantOutcome: auth.OutcomeResolved,
			wantID:      testClientID,
			wantSecret:  "s3cr3t",
		},
		{
			name:        "order does not matter",
			tokens:      []string{"s3cr3t", testClientID},
			wantOutcome: auth.OutcomeResolved,
			wantID:      testClientID,
			wantSecret:  "s3cr3t",
		},
		{
			// Neither token carries a scheme: both land in the secret slot and
			// the later one wins. The outcome records the ambiguity instead
			// of pretending either assignment was right.
			name:        "two plain tokens",
			tokens:      []string{"xyz", "abc"},
			wantOutcome: auth.OutcomeAmbiguous,
			wantID:      "",
			wantSecret:  "abc",
		},
		{
			name:        "two uris",
			tokens:      []string{"https://a.example/x", "https://b.example/y"},
			wantOutcome: auth.OutcomeAmbiguous,
			wantID:      "https://b.example/y",
			wantSecret:  "",
		},
		{
			name:        "id parameter with header secret",
			paramID:     testClientID,
			tokens:      []string{"s3cr3t"},
			wantOutcome: auth.OutcomeResolved,
			wantID:      testClientID,
			wantSecret:  "s3cr3t",
		},
		{
			name:        "id parameter drops uri token",
			paramID:     testClientID,
			tokens:      []string{"https://other.example/id", "s3cr3t"},
			wantOutcome: auth.OutcomeResolved,
			wantID:      testClientID,
			wantSecret:  "s3cr3t",
			wantDropped: 1,
		},
		{
			name:        "id without secret",
			tokens:      []string{testClientID},
			wantOutcome: auth.OutcomeIncomplete,
			wantID:      testClientID,
		},
		{
			name:        "nothing supplied",
			wantOutcome: auth.OutcomeAnonymous,
		},
		{
			name:        "parameters only",
			paramID:     testClientID,
			paramSecret: "s3cr3t",
			wantOutcome: auth.OutcomeResolved,
			wantID:      testClientID,
			wantSecret:  "s3cr3t",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split, err := auth.SplitCredentials(tt.paramID, tt.paramSecret, tt.tokens)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, split.Outcome)
			assert.Equal(t, tt.wantID, split.ID)
			assert.Equal(t, tt.wantSecret, split.Secret)
			assert.Len(t, split.Dropped, tt.wantDropped)
		})
	}
}

func TestSplitCredentialsTooManyTokens(t *testing.T) {
	_, err := auth.SplitCredentials("", "", []string{"a", "b", "c"})
	assert.ErrorIs(t, err, apperrors.ErrTooManyCredentials)
}

func TestResolve(t *testing.T) {
	clients := persistence.NewMemoryClientStore()
	clients.Put(&domain.Client{
		ID:           testClientID,
		SecretDigest: auth.SHA1Hex("s3cr3t"),
		Approved:     true,
	})
	resolver := auth.NewCredentialResolver(clients, nil, discardLogger())
	ctx := context.Background()

	t.Run("resolved client", func(t *testing.T) {
		client, err := resolver.Resolve(ctx, "", "", []string{testClientID, "s3cr3t"})
		require.NoError(t, err)
		require.NotNil(t, client)
		assert.Equal(t, testClientID, client.ID)
	})

	t.Run("anonymous caller", func(t *testing.T) {
		client, err := resolver.Resolve(ctx, "", "", nil)
		require.NoError(t, err)
		assert.Nil(t, client)
	})

	t.Run("missing secret", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, "", "", []string{testClientID})
		assert.ErrorIs(t, err, apperrors.ErrMissingSecret)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, "", "", []string{testClientID, "nope"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidSecret)
	})

	t.Run("unknown client", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, "", "", []string{"https://idp.example/clients/other", "s3cr3t"})
		assert.ErrorIs(t, err, apperrors.ErrUnknownClient)
	})
}
