// Package auth resolves the caller's identity: the client credentials that
// may accompany a request and the bearer access token that must.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/rcauth-eu/keyportal/internal/domain"
	apperrors "github.com/rcauth-eu/keyportal/internal/errors"
)

// Outcome tags the result of splitting the supplied credential material into
// a client id and secret.
type Outcome int

const (
	// OutcomeAnonymous means no client id could be resolved at all. Actions
	// that do not require a client proceed without one.
	OutcomeAnonymous Outcome = iota
	// OutcomeResolved means both id and secret were assigned, each exactly once.
	OutcomeResolved
	// OutcomeIncomplete means an id was resolved but no secret.
	OutcomeIncomplete
	// OutcomeAmbiguous means more than one token competed for the same slot;
	// the later token won, matching the historical behavior. Callers should
	// log this.
	OutcomeAmbiguous
)

// Split is the result of disambiguating request credentials. ID and Secret
// hold the final assignment; Dropped lists tokens that were ignored because
// their slot was already taken by the fallback rule.
type Split struct {
	Outcome Outcome
	ID      string
	Secret  string
	Dropped []string
}

// SplitCredentials assigns a client id and secret from the request parameters
// and the Basic authorization tokens, using the scheme-sniffing heuristic:
// a token that parses as a URI with a scheme is taken as the id, any other
// parsable token as the secret, and an unparsable token as the secret only
// when the secret slot is still empty. A client id supplied as a parameter
// wins outright and removes tokens from id candidacy.
//
// The heuristic is inherently ambiguous when two tokens are both URIs with
// schemes, or neither is; the returned Outcome makes that visible while the
// final assignment stays last-writer-wins.
func SplitCredentials(paramID, paramSecret string, basicTokens []string) (Split, error) {
	if len(basicTokens) > 2 {
		return Split{}, apperrors.ErrTooManyCredentials
	}

	s := Split{ID: paramID, Secret: paramSecret}
	idFixed := paramID != ""
	idAssigned := idFixed
	secretAssigned := paramSecret != ""
	ambiguous := false

	for _, tok := range basicTokens {
		u, err := url.Parse(tok)
		if err != nil {
			// Unparsable: only usable as a secret, and only if that slot is
			// still free. Otherwise the token is silently dropped.
			if s.Secret == "" {
				s.Secret = tok
				secretAssigned = true
			} else {
				s.Dropped = append(s.Dropped, tok)
			}
			continue
		}
		if u.Scheme != "" && !idFixed {
			if idAssigned {
				ambiguous = true
			}
			s.ID = tok
			idAssigned = true
			continue
		}
		if u.Scheme != "" && idFixed {
			// The id came as a parameter; a second id-shaped token has no slot.
			s.Dropped = append(s.Dropped, tok)
			continue
		}
		if secretAssigned {
			ambiguous = true
		}
		s.Secret = tok
		secretAssigned = true
	}

	switch {
	case ambiguous:
		s.Outcome = OutcomeAmbiguous
	case s.ID == "":
		s.Outcome = OutcomeAnonymous
	case s.Secret == "":
		s.Outcome = OutcomeIncomplete
	default:
		s.Outcome = OutcomeResolved
	}
	return s, nil
}

// CredentialResolver turns split credentials into a verified client. The
// digest function is the external one-way digest under which client secrets
// are stored.
type CredentialResolver struct {
	clients domain.ClientStore
	digest  func(string) string
	logger  *slog.Logger
}

func NewCredentialResolver(clients domain.ClientStore, digest func(string) string, logger *slog.Logger) *CredentialResolver {
	if digest == nil {
		digest = SHA1Hex
	}
	return &CredentialResolver{clients: clients, digest: digest, logger: logger}
}

// Resolve returns the verified client for the supplied credentials, or
// (nil, nil) when the caller carries no client context at all. An id without
// a matching secret is an error.
func (r *CredentialResolver) Resolve(ctx context.Context, paramID, paramSecret string, basicTokens []string) (*domain.Client, error) {
	split, err := SplitCredentials(paramID, paramSecret, basicTokens)
	if err != nil {
		return nil, err
	}
	if split.Outcome == OutcomeAmbiguous || len(split.Dropped) > 0 {
		r.logger.WarnContext(ctx, "ambiguous client credentials",
			"outcome", split.Outcome,
			"dropped_tokens", len(split.Dropped),
		)
	}

	if split.ID == "" {
		return nil, nil
	}

	client, err := r.clients.Get(ctx, split.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownClient, split.ID)
		}
		return nil, fmt.Errorf("%w: looking up client: %w", apperrors.ErrStorage, err)
	}

	if split.Secret == "" {
		return nil, apperrors.ErrMissingSecret
	}
	if r.digest(split.Secret) != client.SecretDigest {
		return nil, apperrors.ErrInvalidSecret
	}
	return client, nil
}
