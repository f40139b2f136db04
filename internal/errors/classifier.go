package errors

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

// OAuth2-style error code strings carried in the response body.
const (
	CodeInvalidRequest     = "invalid_request"
	CodeInvalidToken       = "invalid_token"
	CodeUnauthorizedClient = "unauthorized_client"
	CodeNotFound           = "not_found"
	CodeServerError        = "server_error"
)

// Classified is the transport-facing shape of a core error: an OAuth2-style
// code, an HTTP status and a description safe to show the caller.
type Classified struct {
	Code        string
	Status      int
	Description string
}

// Classifier maps core errors to their transport representation and logs
// what must never reach the caller.
type Classifier struct {
	logger *slog.Logger
}

func NewClassifier(logger *slog.Logger) *Classifier {
	return &Classifier{logger: logger}
}

// Classify resolves err to its OAuth2 code and HTTP status. Unrecognized
// errors are treated like storage failures and surface as a generic server
// error.
func (c *Classifier) Classify(err error) Classified {
	switch {
	case errors.Is(err, ErrMissingToken),
		errors.Is(err, ErrUnknownToken),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrExpiredToken),
		errors.Is(err, ErrMalformedToken),
		errors.Is(err, ErrMissingSecret),
		errors.Is(err, ErrUnknownClient),
		errors.Is(err, ErrClientMismatch),
		errors.Is(err, ErrMissingClient),
		errors.Is(err, ErrUnknownAction),
		errors.Is(err, ErrMissingParameter),
		errors.Is(err, ErrInvalidKeyFormat),
		errors.Is(err, ErrDuplicateKey),
		errors.Is(err, ErrQuotaExceeded):
		return Classified{Code: CodeInvalidRequest, Status: http.StatusBadRequest, Description: err.Error()}
	case errors.Is(err, ErrTooManyCredentials):
		return Classified{Code: CodeInvalidToken, Status: http.StatusBadRequest, Description: err.Error()}
	case errors.Is(err, ErrInvalidSecret):
		return Classified{Code: CodeInvalidRequest, Status: http.StatusForbidden, Description: err.Error()}
	case errors.Is(err, ErrClientNotApproved):
		return Classified{Code: CodeUnauthorizedClient, Status: http.StatusForbidden, Description: err.Error()}
	case errors.Is(err, ErrNotFound):
		return Classified{Code: CodeNotFound, Status: http.StatusNotFound, Description: err.Error()}
	default:
		return Classified{Code: CodeServerError, Status: http.StatusInternalServerError, Description: "internal server error"}
	}
}

// LogAndSanitize classifies err, logging server-side failures with their full
// cause chain before returning the sanitized form.
func (c *Classifier) LogAndSanitize(ctx context.Context, operation string, err error) Classified {
	classified := c.Classify(err)
	if classified.Status >= http.StatusInternalServerError {
		c.logger.ErrorContext(ctx, "operation failed",
			"operation", operation,
			"error", err,
		)
	} else {
		c.logger.DebugContext(ctx, "request rejected",
			"operation", operation,
			"code", classified.Code,
			"error", err,
		)
	}
	return classified
}
