package auth

import (
	"net/http"
	"strings"

	"github.com/farmcore/farmcore/internal/platform/httpx"
	"github.com/farmcore/farmcore/internal/shared"
)

// Authenticator extracts the bearer token, validates it, and attaches the
// principal to the request context. Requests without a valid token never
// reach the protected handlers.
func Authenticator(tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				httpx.RespondError(w, shared.E(shared.KindUnauthorized, "bearer token required"))
				return
			}
			p, err := tokens.Parse(raw)
			if err != nil {
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), p)))
		})
	}
}
