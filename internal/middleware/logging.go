package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nightapi/nightapi/internal/auth"
	"github.com/nightapi/nightapi/internal/metrics"
)

// responseWriter wraps http.ResponseWriter to capture status code and size.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Flush implements http.Flusher for streamed media.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		if !rw.wroteHeader {
			rw.WriteHeader(http.StatusOK)
		}
		f.Flush()
	}
}

// routePattern returns the matched chi pattern, falling back to the raw path
// for unmatched requests.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

type accessLogKey struct{}

// accessLog collects fields that inner middleware learns after Logger has
// handed the request on.
type accessLog struct {
	userID *int64
}

// noteUser records the identified caller on the request's access log line.
func noteUser(ctx context.Context, id int64) {
	if entry, ok := ctx.Value(accessLogKey{}).(*accessLog); ok {
		entry.userID = &id
	}
}

// Logger returns a middleware that writes one access log line per request
// and records request metrics. Headers are never logged.
func Logger(logger *slog.Logger, recorder metrics.Recorder) func(http.Handler) http.Handler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)
			entry := &accessLog{}
			r = r.WithContext(context.WithValue(r.Context(), accessLogKey{}, entry))

			defer func() {
				duration := time.Since(start)
				recorder.ObserveRequest(r.Method, routePattern(r), wrapped.status, duration)

				attrs := []slog.Attr{
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status_code", wrapped.status),
					slog.Int64("bytes", wrapped.bytes),
					slog.Float64("duration_ms", float64(duration.Microseconds())/1000),
					slog.String("remote_addr", r.RemoteAddr),
					slog.String("user_agent", r.UserAgent()),
				}
				if traceID := GetTraceID(r.Context()); traceID != "" {
					attrs = append(attrs, slog.String("trace_id", traceID))
				}
				userID := entry.userID
				if userID == nil {
					userID = auth.UserIDFromContext(r.Context())
				}
				if userID != nil {
					attrs = append(attrs, slog.Int64("user_id", *userID))
				}

				level := slog.LevelInfo
				if wrapped.status >= 500 {
					level = slog.LevelError
				} else if wrapped.status >= 400 {
					level = slog.LevelWarn
				}
				logger.LogAttrs(r.Context(), level, "http request", attrs...)
			}()

			next.ServeHTTP(wrapped, r)
		})
	}
}
