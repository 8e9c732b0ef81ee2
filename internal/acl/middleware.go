// internal/acl/middleware.go
//
// Chi middleware helpers that enforce role checks on the authenticated
// principal.  Authentication itself lives in internal/auth; this package
// only answers "may this caller proceed".

package acl

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/storehub/internal/auth"
)

// RequireRole ensures the current principal possesses ANY of the supplied
// roles.  No principal is 401; a principal without the role is 403.
func RequireRole(names ...string) func(http.Handler) http.Handler {
	if len(names) == 0 {
		panic("acl.RequireRole: at least one role name must be supplied")
	}
	allowSet := make(map[string]struct{}, len(names))
	for _, n := range names {
		allowSet[n] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.FromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			for _, rname := range p.Roles {
				if _, ok := allowSet[rname]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}
			zap.L().Warn("acl denied",
				zap.String("subject", p.Subject),
				zap.Strings("roles", p.Roles),
				zap.String("path", r.URL.Path))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}
