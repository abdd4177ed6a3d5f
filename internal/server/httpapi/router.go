package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/pms/internal/logging"
	"github.com/dmitrijs2005/pms/internal/server/models"
	"github.com/julienschmidt/httprouter"
)

// NewRouter wires the routes:
//
//	GET  /health
//	POST /api/auth/login
//	GET  /api/auth/me                 (authenticated)
//	GET  /api/auth/permissions        (authenticated)
//	POST /api/auth/change-password    (authenticated)
//	PUT  /api/users/:id/password      (ADMIN)
//	PUT  /api/users/:id/status        (ADMIN)
func NewRouter(h *Handlers, gate *Gate, roles RoleResolver, l logging.Logger) http.Handler {
	router := httprouter.New()
	router.HandleMethodNotAllowed = true
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		JSONError(w, http.StatusNotFound, "not found", nil)
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		JSONError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		logging.FromContext(r.Context(), l).Error(r.Context(), "panic in handler", "panic", v)
		JSONError(w, http.StatusInternalServerError, "internal error", nil)
	}

	authed := func(f http.HandlerFunc) http.Handler { return gate.Middleware(f) }
	admin := func(f http.HandlerFunc) http.Handler {
		return gate.Middleware(RequireRole(roles, l, models.RoleAdmin)(f))
	}

	router.HandlerFunc(http.MethodGet, "/health", h.Health)
	router.HandlerFunc(http.MethodPost, "/api/auth/login", h.Login)
	router.Handler(http.MethodGet, "/api/auth/me", authed(h.Me))
	router.Handler(http.MethodGet, "/api/auth/permissions", authed(h.Permissions))
	router.Handler(http.MethodPost, "/api/auth/change-password", authed(h.ChangePassword))
	router.Handler(http.MethodPut, "/api/users/:id/password", admin(h.SetUserPassword))
	router.Handler(http.MethodPut, "/api/users/:id/status", admin(h.SetUserStatus))

	return RequestID(l)(AccessLog(l)(router))
}
