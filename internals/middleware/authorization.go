package middle

import (
	"net/http"
	"routepulse/pkg/apperror"
	"routepulse/pkg/utils"

	"github.com/go-chi/chi/v5/middleware"
)

const RoleAdmin = "admin"

// AllowAdmin gates admin surfaces on the token's role claim. It runs
// after authentication, so missing claims mean a broken chain, not a
// forgotten login.
func AllowAdmin(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		reqID := middleware.GetReqID(ctx)

		claims, ok := UserFromContext(ctx)
		if !ok {
			utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "user is unauthorised")
			return
		}
		if claims.Role != RoleAdmin {
			utils.WriteError(w, http.StatusForbidden, reqID, apperror.Forbidden, "admin access required")
			return
		}

		next.ServeHTTP(w, r)
	}

	return http.HandlerFunc(fn)
}
