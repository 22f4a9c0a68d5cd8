package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/flashdealz-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID assigns a request id to every request, echoes it back in the
// response headers, and binds it to the request-scoped logger.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, requestID)
			ctx := logg.WithRequestID(r.Context(), requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
