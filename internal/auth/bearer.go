package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// AdminSubject names the principal minted by BearerToken.
const AdminSubject = "admin-token"

// BearerToken authenticates `Authorization: Bearer <token>` against a
// single shared secret and attaches an admin Principal.  Anything else is
// 401.  An empty token rejects every request.
func BearerToken(token string) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := bearer(r)
			if !ok || len(want) == 0 || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				zap.L().Warn("admin auth rejected",
					zap.String("remote", r.RemoteAddr),
					zap.String("path", r.URL.Path))
				w.Header().Set("WWW-Authenticate", `Bearer realm="storehub"`)
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			ctx := WithPrincipal(r.Context(), Principal{Subject: AdminSubject, Roles: []string{"admin"}})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}
