package core

import (
	"net/http"
	"slices"

	manifest "github.com/joeydtaylor/steeze-mvc/pkg/manifest"
	"github.com/joeydtaylor/steeze-mvc/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-mvc/pkg/transport/httpx"
)

// guardHandler enforces a manifest route guard ahead of the route target.
func guardHandler(a *auth.Middleware, g manifest.Guard) httpx.Handler {
	return func(w http.ResponseWriter, r *http.Request, next httpx.Next) {
		unauthorized := httpx.Error(http.StatusUnauthorized, "Unauthorized")
		forbidden := httpx.Error(http.StatusForbidden, "Forbidden")

		// If no auth middleware wired, guarded routes are unreachable
		if a == nil {
			next(unauthorized)
			return
		}

		ctx := r.Context()
		if !a.IsAuthenticated(ctx) {
			next(unauthorized)
			return
		}
		u := a.GetUser(ctx)
		if len(g.Users) > 0 && !slices.Contains(g.Users, u.Username) && !a.IsAdmin(ctx) {
			next(forbidden)
			return
		}
		if len(g.Roles) > 0 && !slices.ContainsFunc(g.Roles, func(role string) bool { return a.IsRole(ctx, role) }) {
			next(forbidden)
			return
		}
		next(nil)
	}
}
