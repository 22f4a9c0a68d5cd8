package middleware

import (
	"context"
	"net/http"

	pkgerrors "github.com/angelmondragon/flashdealz-backend/pkg/errors"
	"github.com/angelmondragon/flashdealz-backend/pkg/logger"

	"github.com/angelmondragon/flashdealz-backend/api/responses"
)

// The caller identity arrives pre-authenticated from the gateway as a
// plain header. This service trusts it; verifying credentials is the
// gateway's job.
const userIDHeader = "X-User-ID"

type actorKeyType struct{}

var actorKey actorKeyType

// Actor binds the caller's user id, when present, to the request context
// and logger. Requests without one pass through for public reads.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID := r.Header.Get(userIDHeader); userID != "" {
				ctx := context.WithValue(r.Context(), actorKey, userID)
				ctx = logg.WithUserID(ctx, userID)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireActor rejects requests that carry no user identity. Mounted on
// routes where every operation acts on behalf of a specific user.
func RequireActor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserIDFromContext(r.Context()) == "" {
				err := pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user identity")
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext returns the caller's user id, or "" when anonymous.
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(actorKey).(string)
	return userID
}
