package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recovery turns a handler panic into a 500 response instead of killing the
// process. The stack is logged with the request that triggered it.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				l.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				writePanicResponse(w, l)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func writePanicResponse(w http.ResponseWriter, l *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	body := map[string]string{
		"code":    "INTERNAL_ERROR",
		"message": "an internal error occurred",
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		l.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
