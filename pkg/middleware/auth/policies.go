package auth

import (
	"net/http"

	"github.com/joeydtaylor/steeze-mvc/pkg/transport/httpx"
)

// Policy ids registered by Policies.
const (
	PolicyAuthenticated = "authenticated"
	PolicyAdmin         = "admin"
)

// Authenticated lets identified callers through and fails the rest with 401.
func (m *Middleware) Authenticated() httpx.Handler {
	return func(w http.ResponseWriter, r *http.Request, next httpx.Next) {
		if !m.IsAuthenticated(r.Context()) {
			next(httpx.Error(http.StatusUnauthorized, "Unauthorized"))
			return
		}
		next(nil)
	}
}

// Admin requires the configured admin role.
func (m *Middleware) Admin() httpx.Handler {
	return func(w http.ResponseWriter, r *http.Request, next httpx.Next) {
		switch {
		case !m.IsAuthenticated(r.Context()):
			next(httpx.Error(http.StatusUnauthorized, "Unauthorized"))
		case !m.IsAdmin(r.Context()):
			next(httpx.Error(http.StatusForbidden, "Forbidden"))
		default:
			next(nil)
		}
	}
}

// RequireRole admits callers holding role (or the admin role).
func (m *Middleware) RequireRole(role string) httpx.Handler {
	return func(w http.ResponseWriter, r *http.Request, next httpx.Next) {
		switch {
		case !m.IsAuthenticated(r.Context()):
			next(httpx.Error(http.StatusUnauthorized, "Unauthorized"))
		case !m.IsRole(r.Context(), role):
			next(httpx.Error(http.StatusForbidden, "Forbidden"))
		default:
			next(nil)
		}
	}
}

// Policies returns the built-in policy modules keyed by policy id.
func (m *Middleware) Policies() map[string]httpx.Handler {
	return map[string]httpx.Handler{
		PolicyAuthenticated: m.Authenticated(),
		PolicyAdmin:         m.Admin(),
	}
}
