package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/shelfwise/library-backend/api/responses"
	"github.com/shelfwise/library-backend/api/validators"
	pkgAuth "github.com/shelfwise/library-backend/pkg/auth"
	"github.com/shelfwise/library-backend/pkg/auth/session"
	"github.com/shelfwise/library-backend/pkg/config"
	pkgerrors "github.com/shelfwise/library-backend/pkg/errors"
	"github.com/shelfwise/library-backend/pkg/logger"
)

// Auth admits a request only with a valid bearer token whose session is still
// live and belongs to the token's subject. The caller's id, role and jti are
// put on the context.
func Auth(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(r, cfg, sessions)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithActor(r.Context(), claims.UserID, claims.Role)
			ctx = context.WithValue(ctx, ctxJTI, claims.ID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID.String())
				ctx = logg.WithActorRole(ctx, string(claims.Role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(r *http.Request, cfg config.JWTConfig, sessions session.AccessSessionChecker) (*pkgAuth.AccessTokenClaims, error) {
	token, err := validators.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if sessions == nil {
		return claims, nil
	}

	owner, err := sessions.SessionOwner(r.Context(), claims.ID)
	switch {
	case errors.Is(err, session.ErrNoSession):
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired or logged out")
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
	case owner != claims.UserID:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session does not match token")
	}
	return claims, nil
}
