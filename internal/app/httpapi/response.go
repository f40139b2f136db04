package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rcauth-eu/keyportal/internal/domain"
)

// contentType must not change: existing portal clients match on the exact
// header value.
const contentType = "application/json;charset=UTF-8"

type keyJSON struct {
	Label       string `json:"label"`
	Username    string `json:"username"`
	PubKey      string `json:"pub_key"`
	Description string `json:"description,omitempty"`
}

type keysEnvelope struct {
	SSHKeys []keyJSON `json:"ssh_keys"`
}

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// writeKeys renders the fixed success shape: a single ssh_keys array, one
// element per key, description omitted when absent.
func (h *Handler) writeKeys(w http.ResponseWriter, keys []*domain.SSHKey) {
	out := keysEnvelope{SSHKeys: make([]keyJSON, 0, len(keys))}
	for _, key := range keys {
		out.SSHKeys = append(out.SSHKeys, keyJSON{
			Label:       key.Label,
			Username:    key.Username,
			PubKey:      key.PublicKey,
			Description: key.Description,
		})
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	if err := enc.Encode(out); err != nil { // Encode appends the trailing newline
		h.logger.Error("cannot write keys", "error", err)
	}
}

// writeError maps err onto its OAuth2-style code and HTTP status. Storage
// causes are logged, never surfaced.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	classified := h.classifier.LogAndSanitize(ctx, operation, err)
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(classified.Status)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error:            classified.Code,
		ErrorDescription: classified.Description,
	})
}
