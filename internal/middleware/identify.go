package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nightapi/nightapi/internal/auth"
	"github.com/nightapi/nightapi/internal/store"
)

// APIKeyHeader carries the caller's API key.
const APIKeyHeader = "X-API-Key"

// Identify resolves the API key header to a user and stores it in the
// request context. It never rejects: missing or unknown keys, and lookup
// failures, leave the request anonymous.
func Identify(identity store.Identity, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "identify")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(APIKeyHeader)
			if key == "" || !auth.ValidKeyFormat(key) {
				next.ServeHTTP(w, r)
				return
			}

			user, err := identity.GetUserByAPIKey(r.Context(), key)
			if err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					logger.Error("api key lookup failed",
						slog.String("error", err.Error()),
						slog.String("key_fingerprint", auth.Fingerprint(key)),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				}
				next.ServeHTTP(w, r)
				return
			}

			noteUser(r.Context(), user.ID)
			next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), user)))
		})
	}
}
