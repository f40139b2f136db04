package domain

import "context"

// SSHKey represents one registered SSH public key. A key is identified by
// (Username, Label); the public key material itself is unique across the
// whole store, not just per user. An empty Description means none was given.
type SSHKey struct {
	Username    string
	Label       string
	PublicKey   string
	Description string
}

// KeyRepository defines the interface for storing and retrieving SSH keys.
//
// Implementations must provide atomic check-and-write semantics: two
// concurrent InsertIfAbsent calls with the same public key, or two concurrent
// InsertIfAbsent calls without a label for the same user, must not both
// succeed. Reads observe a consistent snapshot.
type KeyRepository interface {
	// FindByPublicKey returns the key holding the given public key material,
	// whichever user owns it, or ErrNotFound.
	FindByPublicKey(ctx context.Context, publicKey string) (*SSHKey, error)

	// FindByUserAndLabel returns the key registered under (username, label),
	// or ErrNotFound.
	FindByUserAndLabel(ctx context.Context, username, label string) (*SSHKey, error)

	// ListByUser returns all keys for username. An empty slice is not an error.
	ListByUser(ctx context.Context, username string) ([]*SSHKey, error)

	// InsertIfAbsent persists key as one atomic unit: it re-checks global
	// public key uniqueness, enforces the per-user quota (maxKeys, 0 means
	// unlimited) and, when key.Label is empty, allocates the next default
	// label, all under per-user serialization. Returns the stored key with
	// its final label.
	InsertIfAbsent(ctx context.Context, key *SSHKey, maxKeys int) (*SSHKey, error)

	// Update replaces the stored public key and description for
	// (key.Username, key.Label). Returns ErrNotFound if the record is absent
	// and ErrDuplicateKey if the new public key collides with another record.
	Update(ctx context.Context, key *SSHKey) error

	// Delete removes the record for (username, label), ErrNotFound if absent.
	Delete(ctx context.Context, username, label string) error
}
