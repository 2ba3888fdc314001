package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/nightapi/nightapi/internal/auth"
	"github.com/nightapi/nightapi/internal/metrics"
	"github.com/nightapi/nightapi/internal/model"
	"github.com/nightapi/nightapi/internal/store"
)

// ledgerAppendTimeout bounds the append after the response is written.
const ledgerAppendTimeout = 2 * time.Second

// Usage appends exactly one ledger entry per request once the handler
// returns, including when it panics (recorded as 500 and re-panicked).
// Append failures are logged and never affect the response.
func Usage(ledger store.Ledger, recorder metrics.Recorder, logger *slog.Logger) func(http.Handler) http.Handler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "usage")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			defer func() {
				rvr := recover()
				status := wrapped.status
				if rvr != nil {
					status = http.StatusInternalServerError
				}

				entry := &model.UsageEntry{
					ID:             ulid.Make().String(),
					UserID:         auth.UserIDFromContext(r.Context()),
					Method:         r.Method,
					Endpoint:       r.URL.Path,
					StatusCode:     status,
					ResponseTimeMS: time.Since(start).Milliseconds(),
					Timestamp:      start,
				}

				ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), ledgerAppendTimeout)
				if err := ledger.Append(ctx, entry); err != nil {
					recorder.IncLedgerAppendFailure()
					logger.Warn("usage append failed",
						slog.String("error", err.Error()),
						slog.String("endpoint", entry.Endpoint),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				}
				cancel()

				if rvr != nil {
					panic(rvr)
				}
			}()

			next.ServeHTTP(wrapped, r)
		})
	}
}
