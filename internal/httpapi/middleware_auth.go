package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/PabloPavan/cobit_api/internal/auth"
	"github.com/PabloPavan/cobit_api/internal/identity"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Principal, error)
}

// OptionalAuth lets anonymous requests through. A request that does send an
// Authorization header must carry a valid bearer token.
func OptionalAuth(authenticator Authenticator) func(http.Handler) http.Handler {
	return authMiddleware(authenticator, false)
}

func RequireAuth(authenticator Authenticator) func(http.Handler) http.Handler {
	return authMiddleware(authenticator, true)
}

func authMiddleware(authenticator Authenticator, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authenticator == nil {
				writeError(w, http.StatusInternalServerError, "auth not configured")
				return
			}

			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				if required {
					writeError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(header)
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			principal, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				writeAppError(w, err)
				return
			}

			ctx := identity.WithSession(r.Context(), principal.UserID, principal.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1]), true
	}
	return "", false
}
