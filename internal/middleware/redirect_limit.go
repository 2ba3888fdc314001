package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/nightapi/nightapi/internal/apierror"
	"github.com/nightapi/nightapi/internal/cache"
	"github.com/nightapi/nightapi/internal/metrics"
)

// RedirectLimitConfig configures the per-IP redirect throttle.
type RedirectLimitConfig struct {
	// RequestsPerSecond per client IP; zero disables the limit.
	RequestsPerSecond int
	// Cache, when set, shares the limit across replicas through Redis.
	Cache   *cache.Cache
	Metrics metrics.Recorder
	Logger  *slog.Logger
}

// RedirectLimit throttles short link redirects per client IP.
func RedirectLimit(cfg RedirectLimitConfig) func(http.Handler) http.Handler {
	if cfg.RequestsPerSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With("component", "redirect_limit")

	reject := func(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		cfg.Metrics.IncRateLimited("redirect")
		logger.Warn("redirect rate limit exceeded",
			slog.String("ip", r.RemoteAddr),
			slog.String("path", r.URL.Path),
			slog.String("request_id", GetRequestID(r.Context())),
		)
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		apierror.Write(w, r, apierror.RateLimited("Too many requests, slow down"))
	}

	if cfg.Cache == nil {
		return httprate.Limit(cfg.RequestsPerSecond, time.Second,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				reject(w, r, time.Second)
			}),
		)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, err := httprate.KeyByIP(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			result, err := cfg.Cache.AllowRedirect(r.Context(), ip, cfg.RequestsPerSecond)
			if err != nil {
				logger.Error("redirect rate limit check failed", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}
			if !result.Allowed {
				reject(w, r, result.RetryAfter)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
