// Package audit records the mutating registry actions.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Logger defines the interface for audit logging.
type Logger interface {
	// Record logs one registry action for username. err is nil on success.
	Record(ctx context.Context, username, clientID, action, label string, err error)
}

// NewStructuredLogger creates an audit logger writing structured events to
// the given slog logger.
func NewStructuredLogger(logger *slog.Logger) Logger {
	return &structuredLogger{logger: logger}
}

type structuredLogger struct {
	logger *slog.Logger
}

func (l *structuredLogger) Record(ctx context.Context, username, clientID, action, label string, err error) {
	attrs := []any{
		"event_id", uuid.New().String(),
		"timestamp", time.Now().UTC().Format(time.RFC3339Nano),
		"username", username,
		"client_id", clientID,
		"action", action,
		"label", label,
		"success", err == nil,
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	l.logger.InfoContext(ctx, "registry action", attrs...)
}

// Discard is an audit logger that drops every event. Used in tests.
var Discard Logger = discard{}

type discard struct{}

func (discard) Record(context.Context, string, string, string, string, error) {}
