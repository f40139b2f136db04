package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rcauth-eu/keyportal/internal/logging"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, logging.RequestID(ctx))

	ctx = logging.WithRequestID(ctx, "abc-123")
	assert.Equal(t, "abc-123", logging.RequestID(ctx))
}

func TestContextHandlerAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(&buf, nil)))

	ctx := logging.WithRequestID(context.Background(), "abc-123")
	logger.InfoContext(ctx, "something happened")
	assert.Contains(t, buf.String(), "request_id=abc-123")
}

func TestContextHandlerWithoutRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(&buf, nil)))

	logger.Info("something happened")
	assert.NotContains(t, buf.String(), "request_id")
}

func TestContextHandlerSurvivesWith(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(&buf, nil)))

	derived := logger.With("component", "test")
	ctx := logging.WithRequestID(context.Background(), "abc-123")
	derived.InfoContext(ctx, "something happened")
	assert.Contains(t, buf.String(), "component=test")
	assert.Contains(t, buf.String(), "request_id=abc-123")
}
