package httpapi

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/rcauth-eu/keyportal/internal/errors"
	"github.com/rcauth-eu/keyportal/internal/infra/ratelimit"
	"github.com/rcauth-eu/keyportal/internal/logging"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestLog mints the request id before dispatch and threads it through
// the context, so every log line below (handler, audit, classifier) carries
// the same id.
func (h *Handler) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()
		ctx := logging.WithRequestID(r.Context(), requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))
		h.logger.InfoContext(ctx, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func (h *Handler) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("panic while serving request", "panic", rec, "path", r.URL.Path)
				w.Header().Set("Content-Type", contentType)
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(errorBody{
					Error:            apperrors.CodeServerError,
					ErrorDescription: "internal server error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) withRateLimit(limiter ratelimit.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			caller = r.RemoteAddr
		}
		if !limiter.Allow(caller) {
			w.Header().Set("Content-Type", contentType)
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(errorBody{
				Error:            apperrors.CodeInvalidRequest,
				ErrorDescription: "too many requests",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
