package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/restaurant-backend/api/responses"
	pkgauth "github.com/angelmondragon/restaurant-backend/pkg/auth"
	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
)

type tokenVerifier interface {
	Verify(ctx context.Context, token string) (pkgauth.Identity, error)
}

type userResolver interface {
	Resolve(ctx context.Context, authUID string) (*models.User, error)
}

// Identity verifies the bearer token and seeds the request context with the
// caller's uid and, once registered, their local user. With required=false a
// request without an Authorization header passes through as a guest; a
// present but invalid token is always rejected.
func Identity(verifier tokenVerifier, users userResolver, required bool, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				if required {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
					return
				}
				next.ServeHTTP(w, r)
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
			if verifier == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "token verifier unavailable"))
				return
			}

			identity, err := verifier.Verify(r.Context(), token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithAuthUID(r.Context(), identity.UID)
			fields := map[string]any{"auth_uid": identity.UID}

			if users != nil {
				user, err := users.Resolve(ctx, identity.UID)
				switch {
				case err == nil:
					ctx = WithUser(ctx, user)
					fields["user_id"] = user.ID.String()
					fields["actor_role"] = string(user.Role)
				case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
					// verified but not registered yet; POST /users creates them
				default:
					responses.WriteError(ctx, logg, w, err)
					return
				}
			}

			if logg != nil {
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests whose identity has no local user record.
func RequireUser(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserFromContext(r.Context()) == nil {
				if AuthUIDFromContext(r.Context()) == "" {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "user not registered"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
