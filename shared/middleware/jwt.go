package middleware

import (
	"context"
	"net/http"

	"github.com/vasapolrittideah/ticket-booking-api/shared/auth"
)

type contextKey struct{}

var UserClaimsKey = contextKey{}

// TokenAuthenticator turns a bearer token into verified claims.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// ErrorResponder writes the response for a request that failed authentication.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

// NewJWTMiddleware rejects requests without a valid bearer token and stores the
// verified claims in the request context.
func NewJWTMiddleware(authenticator TokenAuthenticator, onError ErrorResponder) func(http.Handler) http.Handler {
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.ParseBearerToken(r.Header.Get("Authorization"))
			if err != nil {
				onError(w, r, err)
				return
			}

			claims, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				onError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims stored by the JWT middleware.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}
