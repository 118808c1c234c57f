package middleware

import (
	"net/http"

	"github.com/gosuda/crewhub/internal/domain"
)

// RequireRole returns middleware that checks if the authenticated actor has one
// of the allowed roles. It must be chained after Auth.
//
// Returns 401 when no actor is in context and 403 when the actor's role does
// not match.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFromContext(r.Context())
			if !ok || role == "" {
				http.Error(w, `{"title":"Unauthorized","status":401,"detail":"authentication required"}`, http.StatusUnauthorized)
				return
			}

			if _, match := allowed[role]; !match {
				http.Error(w, `{"title":"Forbidden","status":403,"detail":"insufficient permissions"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireWriteRole lets every authenticated actor read and restricts other
// methods to admins and coordinators.
func RequireWriteRole() func(http.Handler) http.Handler {
	readers := RequireRole(domain.RoleAdmin, domain.RoleCoordinator, domain.RoleViewer)
	writers := RequireRole(domain.RoleAdmin, domain.RoleCoordinator)

	return func(next http.Handler) http.Handler {
		read, write := readers(next), writers(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				read.ServeHTTP(w, r)
			default:
				write.ServeHTTP(w, r)
			}
		})
	}
}
