// Package service implements the SSH key registry: CRUD over a user's keys
// under the global uniqueness and per-user quota invariants. It knows nothing
// about HTTP or SQL.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rcauth-eu/keyportal/internal/audit"
	"github.com/rcauth-eu/keyportal/internal/domain"
	apperrors "github.com/rcauth-eu/keyportal/internal/errors"
	"github.com/rcauth-eu/keyportal/internal/validation"
)

// Registry performs key operations for the authenticated user. The username
// always comes from the verified transaction, never from the caller.
type Registry struct {
	repo    domain.KeyRepository
	maxKeys int
	audit   audit.Logger
	logger  *slog.Logger
}

// NewRegistry creates a registry enforcing a per-user maximum of maxKeys
// (0 means unlimited).
func NewRegistry(repo domain.KeyRepository, maxKeys int, auditLogger audit.Logger, logger *slog.Logger) *Registry {
	if auditLogger == nil {
		auditLogger = audit.Discard
	}
	return &Registry{repo: repo, maxKeys: maxKeys, audit: auditLogger, logger: logger}
}

// Add registers a new public key for username. When label is empty the next
// default label is allocated. The duplicate check, the quota check and the
// insert are one atomic unit in the repository.
func (r *Registry) Add(ctx context.Context, username, clientID, label, publicKey, description string) (key *domain.SSHKey, err error) {
	defer func() { r.audit.Record(ctx, username, clientID, "add", label, err) }()

	if username == "" {
		return nil, fmt.Errorf("%w: no username in transaction", apperrors.ErrStorage)
	}
	if publicKey == "" {
		return nil, fmt.Errorf("%w: pubkey", apperrors.ErrMissingParameter)
	}
	if err := validation.CheckPublicKey(publicKey); err != nil {
		return nil, err
	}

	// Fast-path duplicate check for a friendlier failure; the repository
	// arbitrates races on insert.
	existing, err := r.repo.FindByPublicKey(ctx, publicKey)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, storage("checking for duplicate key", err)
	}
	if existing != nil {
		return nil, apperrors.ErrDuplicateKey
	}

	key, err = r.repo.InsertIfAbsent(ctx, &domain.SSHKey{
		Username:    username,
		Label:       label,
		PublicKey:   publicKey,
		Description: description,
	}, r.maxKeys)
	if err != nil {
		if isDomainErr(err) {
			return nil, err
		}
		return nil, storage("registering key", err)
	}
	return key, nil
}

// Update replaces the public key and/or description of the record under
// (username, label). A nil field is left untouched; username and label never
// change.
func (r *Registry) Update(ctx context.Context, username, clientID, label string, publicKey, description *string) (key *domain.SSHKey, err error) {
	defer func() { r.audit.Record(ctx, username, clientID, "update", label, err) }()

	if username == "" {
		return nil, fmt.Errorf("%w: no username in transaction", apperrors.ErrStorage)
	}
	if label == "" {
		return nil, fmt.Errorf("%w: label", apperrors.ErrMissingParameter)
	}
	if publicKey != nil {
		if *publicKey == "" {
			return nil, fmt.Errorf("%w: pubkey may not be empty", apperrors.ErrMissingParameter)
		}
		if err := validation.CheckPublicKey(*publicKey); err != nil {
			return nil, err
		}
	}

	key, err = r.repo.FindByUserAndLabel(ctx, username, label)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: key to update", apperrors.ErrNotFound)
		}
		return nil, storage("loading key to update", err)
	}

	if publicKey != nil {
		other, err := r.repo.FindByPublicKey(ctx, *publicKey)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, storage("checking for duplicate key", err)
		}
		if other != nil && (other.Username != username || other.Label != label) {
			return nil, apperrors.ErrDuplicateKey
		}
		key.PublicKey = *publicKey
	}
	if description != nil {
		key.Description = *description
	}

	if err := r.repo.Update(ctx, key); err != nil {
		if isDomainErr(err) {
			return nil, err
		}
		return nil, storage("updating key", err)
	}
	return key, nil
}

// Remove deletes the record under (username, label). A second remove of the
// same label fails with not found.
func (r *Registry) Remove(ctx context.Context, username, clientID, label string) (err error) {
	defer func() { r.audit.Record(ctx, username, clientID, "remove", label, err) }()

	if username == "" {
		return fmt.Errorf("%w: no username in transaction", apperrors.ErrStorage)
	}
	if label == "" {
		return fmt.Errorf("%w: label", apperrors.ErrMissingParameter)
	}
	if err := r.repo.Delete(ctx, username, label); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: key to remove", apperrors.ErrNotFound)
		}
		return storage("removing key", err)
	}
	return nil
}

// Get returns the record under (username, label).
func (r *Registry) Get(ctx context.Context, username, label string) (*domain.SSHKey, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: no username in transaction", apperrors.ErrStorage)
	}
	if label == "" {
		return nil, fmt.Errorf("%w: label", apperrors.ErrMissingParameter)
	}
	key, err := r.repo.FindByUserAndLabel(ctx, username, label)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: key", apperrors.ErrNotFound)
		}
		return nil, storage("getting key", err)
	}
	return key, nil
}

// List returns all of the user's records; an empty result is not an error.
func (r *Registry) List(ctx context.Context, username string) ([]*domain.SSHKey, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: no username in transaction", apperrors.ErrStorage)
	}
	keys, err := r.repo.ListByUser(ctx, username)
	if err != nil {
		return nil, storage("listing keys", err)
	}
	return keys, nil
}

// storage wraps a repository failure so only a generic error reaches the
// caller; the cause stays on the chain for logging.
func storage(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", apperrors.ErrStorage, what, err)
}

// isDomainErr reports whether err is an invariant violation the repository
// is allowed to surface as-is.
func isDomainErr(err error) bool {
	return errors.Is(err, apperrors.ErrDuplicateKey) ||
		errors.Is(err, apperrors.ErrQuotaExceeded) ||
		errors.Is(err, apperrors.ErrNotFound)
}
