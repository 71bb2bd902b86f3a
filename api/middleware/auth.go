package middleware

import (
	"net/http"
	"strings"

	"github.com/Digigit24/kumsserpbackend-sub001/api/responses"
	"github.com/Digigit24/kumsserpbackend-sub001/internal/approval"
	pkgAuth "github.com/Digigit24/kumsserpbackend-sub001/pkg/auth"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/config"
	pkgerrors "github.com/Digigit24/kumsserpbackend-sub001/pkg/errors"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the actor.
// It never decides permissions; the approval gate does.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			actor := approval.Actor{
				UserID: claims.UserID,
				Role:   claims.Role,
				SiteID: claims.SiteID,
			}
			ctx := WithActor(r.Context(), actor)

			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID.String())
				ctx = logg.WithActorRole(ctx, string(claims.Role))
				if claims.SiteID != nil {
					ctx = logg.WithCollegeID(ctx, claims.SiteID.String())
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
