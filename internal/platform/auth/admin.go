package auth

import (
	"net/http"
	"strings"

	"github.com/example/rpg-platform/internal/platform/api"
)

// RequireAdmin passes the request through only when RequireUser already
// injected role=admin into the context.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, _ := RoleFromContext(r.Context())
		if !strings.EqualFold(strings.TrimSpace(role), "admin") {
			api.Forbidden(w, "FORBIDDEN", "admin role required", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}
