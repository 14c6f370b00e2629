package auth

import (
	"context"
	"net/http"
	"strings"

	"orgmeet/internal/httpx"
)

type contextKey string

const identityContextKey contextKey = "orgmeet_identity"

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(*Identity)
	return id, ok
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return token, token != ""
}

// JWTMiddleware rejects requests without a valid bearer token with a uniform 401.
func JWTMiddleware(issuer *Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			claims, err := issuer.Parse(token)
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims.Identity())))
		})
	}
}

func RequireRole(next http.HandlerFunc, roles ...Role) http.HandlerFunc {
	allowed := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if _, ok := allowed[id.Role]; !ok {
			httpx.WriteError(w, http.StatusForbidden, "Forbidden")
			return
		}
		next(w, r)
	}
}

// RequireEntityAccess answers 403 and returns false when the caller may not
// touch entityID's data.
func RequireEntityAccess(w http.ResponseWriter, r *http.Request, entityID int64) bool {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return false
	}
	if !id.CanAccessEntity(entityID) {
		httpx.WriteError(w, http.StatusForbidden, "Forbidden")
		return false
	}
	return true
}
