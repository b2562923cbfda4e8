package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/cvpratico/cv-builder/pkg/logger"
)

// RequestID tags every request with a trace id, honoring one supplied by the
// caller. The id rides the context logger and is echoed back in the response,
// which is what ties a webhook delivery to its processing log lines.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "traceID", traceID)
		w.Header().Set("X-Trace-ID", traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
