package chi

import (
	"context"
	"net/http"
	"strings"
)

type ownerKey struct{}

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// OwnerFromContext returns the authenticated owner ID, if any.
func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerKey{}).(string)
	return owner, ok
}

// ContextWithOwner stores the owner ID in the context. Exposed for tests.
func ContextWithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// BearerAuthMiddleware validates Bearer API keys and resolves each to an
// owner ID, which scopes every corpus read and write downstream.
// An empty client map disables authentication: every request runs as the
// given fallback owner.
func BearerAuthMiddleware(clients map[string]string, fallbackOwner string) func(http.Handler) http.Handler {
	valid := make(map[string]string, len(clients))
	for key, owner := range clients {
		if key != "" && owner != "" {
			valid[key] = owner
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			if len(valid) == 0 {
				next.ServeHTTP(w, r.WithContext(ContextWithOwner(r.Context(), fallbackOwner)))
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized, codeUnauthorized,
					"authorization header must use Bearer scheme")
				return
			}

			owner, ok := valid[auth[len(bearerPrefix):]]
			if !ok {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithOwner(r.Context(), owner)))
		})
	}
}
