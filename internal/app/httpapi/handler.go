// Package httpapi is the transport boundary: it dispatches validated
// requests to the registry and renders the fixed JSON shapes.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rcauth-eu/keyportal/internal/auth"
	"github.com/rcauth-eu/keyportal/internal/domain"
	apperrors "github.com/rcauth-eu/keyportal/internal/errors"
	"github.com/rcauth-eu/keyportal/internal/infra/ratelimit"
	"github.com/rcauth-eu/keyportal/internal/service"
)

// Request parameters.
const (
	paramAction       = "action"
	paramLabel        = "label"
	paramPubKey       = "pubkey"
	paramDescription  = "description"
	paramAccessToken  = "access_token"
	paramClientID     = "client_id"
	paramClientSecret = "client_secret"
)

// Actions.
const (
	actionAdd    = "add"
	actionUpdate = "update"
	actionRemove = "remove"
	actionGet    = "get"
	actionList   = "list"
)

// Handler serves the SSH key API. Each request is independent: the token
// gate yields the transaction, the credential resolver optionally yields a
// client, and the action dispatch runs one registry operation.
type Handler struct {
	gate       *auth.TokenGate
	resolver   *auth.CredentialResolver
	registry   *service.Registry
	classifier *apperrors.Classifier
	health     func(context.Context) error
	logger     *slog.Logger
}

func NewHandler(
	gate *auth.TokenGate,
	resolver *auth.CredentialResolver,
	registry *service.Registry,
	classifier *apperrors.Classifier,
	health func(context.Context) error,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		gate:       gate,
		resolver:   resolver,
		registry:   registry,
		classifier: classifier,
		health:     health,
		logger:     logger,
	}
}

// Routes builds the handler chain: request logging, panic recovery and rate
// limiting around the API endpoints.
func (h *Handler) Routes(limiter ratelimit.Limiter) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/sshkey", h.handleSSHKey)
	mux.HandleFunc("/healthz", h.handleHealth)

	var handler http.Handler = mux
	handler = h.withRateLimit(limiter, handler)
	handler = h.withRecovery(handler)
	handler = h.withRequestLog(handler)
	return handler
}

func (h *Handler) handleSSHKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		h.writeError(ctx, w, "parse", fmt.Errorf("%w: cannot parse request parameters", apperrors.ErrMissingParameter))
		return
	}

	transaction, err := h.gate.Verify(ctx,
		authHeaderTokens(r, "Bearer"),
		r.Form.Get(paramAccessToken),
	)
	if err != nil {
		h.writeError(ctx, w, "token", err)
		return
	}

	// For add and update the client is mandatory; for the others, if present
	// it must still be valid and match the access token.
	client, err := h.resolver.Resolve(ctx,
		r.Form.Get(paramClientID),
		r.Form.Get(paramClientSecret),
		authHeaderTokens(r, "Basic"),
	)
	if err != nil {
		h.writeError(ctx, w, "client", err)
		return
	}
	if client != nil {
		if client.ID != transaction.ClientID {
			h.writeError(ctx, w, "client", apperrors.ErrClientMismatch)
			return
		}
		if !client.Approved {
			h.writeError(ctx, w, "client", apperrors.ErrClientNotApproved)
			return
		}
	}

	action := r.Form.Get(paramAction)
	if action == "" {
		h.writeError(ctx, w, "dispatch", fmt.Errorf("%w: %s", apperrors.ErrMissingParameter, paramAction))
		return
	}

	username := transaction.Username
	clientID := ""
	if client != nil {
		clientID = client.ID
	}
	label := r.Form.Get(paramLabel)

	switch action {
	case actionAdd:
		if client == nil {
			h.writeError(ctx, w, action, fmt.Errorf("%w for action %s", apperrors.ErrMissingClient, action))
			return
		}
		key, err := h.registry.Add(ctx, username, clientID, label, r.Form.Get(paramPubKey), r.Form.Get(paramDescription))
		if err != nil {
			h.writeError(ctx, w, action, err)
			return
		}
		h.writeKeys(w, []*domain.SSHKey{key})

	case actionUpdate:
		if client == nil {
			h.writeError(ctx, w, action, fmt.Errorf("%w for action %s", apperrors.ErrMissingClient, action))
			return
		}
		key, err := h.registry.Update(ctx, username, clientID, label, formValue(r, paramPubKey), formValue(r, paramDescription))
		if err != nil {
			h.writeError(ctx, w, action, err)
			return
		}
		h.writeKeys(w, []*domain.SSHKey{key})

	case actionRemove:
		if err := h.registry.Remove(ctx, username, clientID, label); err != nil {
			h.writeError(ctx, w, action, err)
			return
		}
		h.writeKeys(w, nil)

	case actionGet:
		key, err := h.registry.Get(ctx, username, label)
		if err != nil {
			h.writeError(ctx, w, action, err)
			return
		}
		h.writeKeys(w, []*domain.SSHKey{key})

	case actionList:
		keys, err := h.registry.List(ctx, username)
		if err != nil {
			h.writeError(ctx, w, action, err)
			return
		}
		h.writeKeys(w, keys)

	default:
		h.writeError(ctx, w, "dispatch", fmt.Errorf("%w: %s", apperrors.ErrUnknownAction, action))
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.logger.Error("health check failed", "error", err)
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// authHeaderTokens collects, in order, the token part of every Authorization
// header value carrying the given scheme.
func authHeaderTokens(r *http.Request, scheme string) []string {
	var tokens []string
	for _, value := range r.Header.Values("Authorization") {
		parts := strings.SplitN(strings.TrimSpace(value), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], scheme) {
			continue
		}
		tokens = append(tokens, strings.TrimSpace(parts[1]))
	}
	return tokens
}

// formValue distinguishes an absent parameter (nil) from a present empty one.
func formValue(r *http.Request, name string) *string {
	if !r.Form.Has(name) {
		return nil
	}
	v := r.Form.Get(name)
	return &v
}
