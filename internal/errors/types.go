package errors

import "errors"

// Closed set of error kinds produced by the core. Transport status codes are
// attached only by the Classifier; nothing below this package knows HTTP.
var (
	// Token gate.
	ErrMissingToken   = errors.New("no access token was sent")
	ErrUnknownToken   = errors.New("no transaction for the access token was found")
	ErrInvalidToken   = errors.New("invalid access token")
	ErrExpiredToken   = errors.New("token expired")
	ErrMalformedToken = errors.New("malformed access token")

	// Client credential resolution.
	ErrTooManyCredentials = errors.New("too many authorization tokens")
	ErrMissingSecret      = errors.New("no secret, request refused")
	ErrInvalidSecret      = errors.New("secret is incorrect, request refused")
	ErrUnknownClient      = errors.New("unknown client")

	// Action preconditions.
	ErrClientMismatch    = errors.New("client_id does not match access token")
	ErrMissingClient     = errors.New("missing client")
	ErrClientNotApproved = errors.New("client has not been approved")

	// Request validation.
	ErrUnknownAction    = errors.New("invalid action specified")
	ErrMissingParameter = errors.New("missing mandatory parameter")
	ErrInvalidKeyFormat = errors.New("value does not look like a SSH public key")

	// Registry invariants.
	ErrDuplicateKey  = errors.New("SSH public key is already registered")
	ErrQuotaExceeded = errors.New("reached maximum number of keys")

	ErrNotFound = errors.New("not found")

	// ErrStorage hides repository failures from the caller; the cause chain
	// is logged internally only.
	ErrStorage = errors.New("storage failure")
)
