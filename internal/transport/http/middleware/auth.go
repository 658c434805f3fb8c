package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-employee-api/internal/domain"
)

type contextKey string

const PrincipalKey contextKey = "principal"

type authorizer interface {
	Authorize(ctx context.Context, token string) (domain.Principal, error)
}

// Auth returns middleware that runs the Bearer token through the authorization
// gate and injects the resulting principal into context.
func Auth(a authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			p, err := a.Authorize(r.Context(), strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				if errors.Is(err, domain.ErrSessionStoreUnavailable) {
					writeJSONError(w, http.StatusServiceUnavailable, "session store unavailable")
					return
				}
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// PrincipalFromContext extracts the authorized principal from the request context.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(domain.Principal)
	return p, ok
}
