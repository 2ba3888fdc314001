package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nightapi/nightapi/internal/apierror"
	"github.com/nightapi/nightapi/internal/auth"
	"github.com/nightapi/nightapi/internal/metrics"
	"github.com/nightapi/nightapi/internal/model"
	"github.com/nightapi/nightapi/internal/store"
)

// QuotaConfig configures the daily quota middleware.
type QuotaConfig struct {
	Enabled bool
	Ledger  store.Ledger
	Metrics metrics.Recorder
	Logger  *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Quota enforces each identified user's daily request limit against the
// usage ledger. Anonymous requests are always admitted, as are requests
// whose usage cannot be read.
//
// Admission claims a slot that is held until the downstream handler (and the
// Usage middleware inside it) returns, so concurrent requests from one user
// cannot exceed the limit. Ledgers implementing store.Reserver claim slots
// themselves; others are guarded in process.
func Quota(cfg QuotaConfig) func(http.Handler) http.Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With("component", "quota")

	reserver, ok := cfg.Ledger.(store.Reserver)
	if !ok {
		reserver = newLocalReserver(cfg.Ledger)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			user := auth.UserFromContext(r.Context())
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			now := cfg.Now()
			limit := user.DailyLimit()
			reset := model.NextReset(now)

			res, err := reserver.Reserve(r.Context(), user.ID, model.StartOfDay(now), limit)
			if err != nil {
				logger.Error("usage count failed",
					slog.String("error", err.Error()),
					slog.Int64("user_id", user.ID),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				next.ServeHTTP(w, r)
				return
			}

			if !res.Admitted {
				retryAfter := int(reset.Sub(now).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				setRateLimitHeaders(w, limit, 0, reset)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

				cfg.Metrics.IncRateLimited("daily")
				logger.Warn("daily quota exceeded",
					slog.Int64("user_id", user.ID),
					slog.Int("limit", limit),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				apierror.Write(w, r, apierror.RateLimited("Daily request limit of %d exceeded", limit))
				return
			}

			defer res.Release()

			remaining := limit - res.Used - 1
			if remaining < 0 {
				remaining = 0
			}
			setRateLimitHeaders(w, limit, remaining, reset)
			next.ServeHTTP(w, r)
		})
	}
}

// setRateLimitHeaders sets standard rate limit response headers.
func setRateLimitHeaders(w http.ResponseWriter, limit, remaining int, resetAt time.Time) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
}
