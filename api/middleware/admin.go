package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/angelmondragon/flashdealz-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/flashdealz-backend/pkg/errors"
	"github.com/angelmondragon/flashdealz-backend/pkg/logger"

	"github.com/angelmondragon/flashdealz-backend/api/responses"
)

const adminTokenHeader = "X-Admin-Token"

// AdminAuth gates the admin surface behind a static shared token.
func AdminAuth(cfg config.AdminConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(adminTokenHeader)
			if token == "" {
				err := pkgerrors.New(pkgerrors.CodeUnauthorized, "missing admin token")
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.Token)) != 1 {
				err := pkgerrors.New(pkgerrors.CodeForbidden, "invalid admin token")
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
