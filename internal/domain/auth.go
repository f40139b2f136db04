package domain

import "context"

// AccessToken is the opaque bearer credential issued by the authorization
// pipeline. Its final '/'-separated segment embeds a millisecond creation
// timestamp used for freshness checks.
type AccessToken string

// Transaction binds an access token to the client it was issued to and the
// username resolved during delegation. Transactions are owned by the
// authorization pipeline and are read-only here.
type Transaction struct {
	Token            AccessToken
	ClientID         string
	Username         string
	AccessTokenValid bool
}

// Client is a registered OAuth2 relying party. The secret is stored only as
// a one-way digest. Clients are owned by the authorization pipeline and are
// read-only here apart from the approval check.
type Client struct {
	ID           string
	SecretDigest string
	Approved     bool
}

// TransactionStore resolves access tokens to transactions.
type TransactionStore interface {
	// Get returns the transaction for token, or ErrNotFound.
	Get(ctx context.Context, token AccessToken) (*Transaction, error)
}

// ClientStore resolves client identifiers to registered clients.
type ClientStore interface {
	// Get returns the client registered under id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Client, error)
}
