package auth

import (
	"context"
	"net/http"
	"strings"

	response "github.com/kgellert/cloudclip/internal/lib"
)

type claimsKeyType struct{}

var claimsKey = claimsKeyType{}

// TokenVerifier is the capability the gate needs from the token service.
type TokenVerifier interface {
	Verify(token string) *Claims
}

// Gate guards every route except the allowlist. API paths answer 401,
// page navigations are redirected to the login page. The token is taken
// from the Authorization header with a `token` query parameter fallback,
// because inline resource fetches (<img> previews) cannot set headers.
func Gate(tokens TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token := BearerToken(r)
			if token == "" {
				token = r.URL.Query().Get("token")
			}

			if token == "" {
				reject(w, r, "unauthorized")
				return
			}

			claims := tokens.Verify(token)
			if claims == nil {
				reject(w, r, ErrTokenInvalid.Error())
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		}

		return http.HandlerFunc(fn)
	}
}

// Identity returns the verified claims the gate attached, or nil for
// requests that came through the allowlist.
func Identity(r *http.Request) *Claims {
	claims, _ := r.Context().Value(claimsKey).(*Claims)
	return claims
}

// BearerToken extracts the token from the Authorization header, or "".
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(h, "Bearer ")
}

func isPublicPath(path string) bool {
	switch {
	case strings.HasPrefix(path, "/api/auth/"):
		return true
	case path == "/login.html" || path == "/metrics":
		return true
	case strings.HasSuffix(path, ".css") || strings.HasSuffix(path, ".js"):
		return true
	case strings.HasSuffix(path, ".ico") || strings.Contains(path, "favicon"):
		return true
	}
	return false
}

func reject(w http.ResponseWriter, r *http.Request, msg string) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		response.WriteError(w, r, http.StatusUnauthorized, msg)
		return
	}
	http.Redirect(w, r, "/login.html", http.StatusFound)
}
