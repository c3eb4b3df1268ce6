package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/henosis-us/lantern/internal/identity"
)

// TokenVerifier validates caller tokens. *identity.Service satisfies it.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*identity.VerifyResult, error)
}

type userKey struct{}

// WithUser returns a context carrying a verified caller.
func WithUser(ctx context.Context, user *identity.VerifyResult) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser returns the verified caller from the context, or nil when the
// request was not authenticated.
func GetUser(ctx context.Context) *identity.VerifyResult {
	if u, ok := ctx.Value(userKey{}).(*identity.VerifyResult); ok {
		return u
	}
	return nil
}

// TokenAuth authenticates requests against the identity service. Tokens
// arrive as "Authorization: Bearer <token>" or, for media elements that
// cannot set headers, as a "token" query parameter. Paths in exempt skip
// authentication entirely (exact match or "prefix/").
func TokenAuth(verifier TokenVerifier, exempt []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range exempt {
				if r.URL.Path == p || strings.HasPrefix(r.URL.Path, p+"/") {
					next.ServeHTTP(w, r)
					return
				}
			}

			token := bearerToken(r)
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				http.Error(w, "missing token", http.StatusUnauthorized)
				return
			}

			result, err := verifier.Verify(r.Context(), token)
			if err != nil {
				http.Error(w, "token verification unavailable", http.StatusBadGateway)
				return
			}
			if !result.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), result)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
