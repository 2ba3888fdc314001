package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/nightapi/nightapi/internal/apierror"
)

// Recoverer recovers from handler panics, logs them with the stack and
// answers with the InternalFailure envelope when nothing was written yet.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := wrapResponseWriter(w)
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if err, ok := rvr.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rvr)
				}

				logger.Error("panic recovered",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("path", r.URL.Path),
					slog.Any("panic", rvr),
					slog.String("stack", string(debug.Stack())),
				)

				if !wrapped.wroteHeader {
					apierror.Write(wrapped, r, apierror.Internal("An internal error occurred"))
				}
			}()

			next.ServeHTTP(wrapped, r)
		})
	}
}
