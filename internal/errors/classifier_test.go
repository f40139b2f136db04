package errors_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/rcauth-eu/keyportal/internal/errors"
)

func TestClassify(t *testing.T) {
	c := apperrors.NewClassifier(slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil)))

	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"missing token", apperrors.ErrMissingToken, apperrors.CodeInvalidRequest, http.StatusBadRequest},
		{"expired token", apperrors.ErrExpiredToken, apperrors.CodeInvalidRequest, http.StatusBadRequest},
		{"too many credentials", apperrors.ErrTooManyCredentials, apperrors.CodeInvalidToken, http.StatusBadRequest},
		{"invalid secret", apperrors.ErrInvalidSecret, apperrors.CodeInvalidRequest, http.StatusForbidden},
		{"client not approved", apperrors.ErrClientNotApproved, apperrors.CodeUnauthorizedClient, http.StatusForbidden},
		{"duplicate key", apperrors.ErrDuplicateKey, apperrors.CodeInvalidRequest, http.StatusBadRequest},
		{"quota exceeded", apperrors.ErrQuotaExceeded, apperrors.CodeInvalidRequest, http.StatusBadRequest},
		{"not found", apperrors.ErrNotFound, apperrors.CodeNotFound, http.StatusNotFound},
		{"storage", apperrors.ErrStorage, apperrors.CodeServerError, http.StatusInternalServerError},
		{"unrecognized", errors.New("something else entirely"), apperrors.CodeServerError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := c.Classify(tt.err)
			assert.Equal(t, tt.code, classified.Code)
			assert.Equal(t, tt.status, classified.Status)
		})
	}
}

func TestClassifyWrappedSentinel(t *testing.T) {
	c := apperrors.NewClassifier(slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil)))

	wrapped := fmt.Errorf("%w: label", apperrors.ErrMissingParameter)
	classified := c.Classify(wrapped)
	assert.Equal(t, apperrors.CodeInvalidRequest, classified.Code)
	assert.Equal(t, wrapped.Error(), classified.Description)
}

func TestStorageCauseNeverSurfaces(t *testing.T) {
	var buf bytes.Buffer
	c := apperrors.NewClassifier(slog.New(slog.NewTextHandler(&buf, nil)))

	cause := errors.New("dial tcp 10.0.0.5:5432: connection refused")
	wrapped := fmt.Errorf("%w: registering key: %w", apperrors.ErrStorage, cause)

	classified := c.LogAndSanitize(context.Background(), "add", wrapped)
	assert.Equal(t, apperrors.CodeServerError, classified.Code)
	assert.Equal(t, http.StatusInternalServerError, classified.Status)
	assert.Equal(t, "internal server error", classified.Description)
	assert.NotContains(t, classified.Description, "connection refused")

	// The full cause chain goes to the log, at ERROR.
	assert.Contains(t, buf.String(), "connection refused")
	assert.Contains(t, buf.String(), "level=ERROR")
}

func TestRejectionsLogBelowError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := apperrors.NewClassifier(logger)

	c.LogAndSanitize(context.Background(), "token", apperrors.ErrExpiredToken)
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.NotContains(t, buf.String(), "level=ERROR")
}
