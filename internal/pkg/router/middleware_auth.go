package router

import (
	"net/http"
	"strings"

	"github.com/watarui/wauth/internal/pkg/goerror"
	"github.com/watarui/wauth/internal/pkg/jwt"
)

var (
	errAuthRequired      = goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	errInvalidToken      = goerror.NewBusiness("Invalid or expired token", goerror.CodeUnauthorized)
	errInsufficientScope = goerror.NewBusiness("Insufficient scope", goerror.CodeForbidden)
)

// middlewareAuthentication verifies the bearer token on every route except
// the public ones and stores the claims in the request context.
func middlewareAuthentication(verifier jwt.JWT, public map[string]map[string]struct{}) Middleware {
	return func(next http.Handler) http.Handler {
		if verifier == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := public[r.Method][matchedRoutePath(r)]; ok {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, found := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				encodeError(r.Context(), w, errAuthRequired)
				return
			}

			claims, err := verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				encodeError(r.Context(), w, errInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}

// RequireScope rejects authenticated requests whose token lacks scope.
// Requests without claims pass, which is the case when authentication is off.
func RequireScope(scope string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if clm := jwt.GetAuth(r.Context()); clm != nil && !clm.HasScope(scope) {
				encodeError(r.Context(), w, errInsufficientScope)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
