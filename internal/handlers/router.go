package handlers

import (
	"net/http"

	"github.com/nkiryanov/taskboard/internal/handlers/middleware"
	"github.com/nkiryanov/taskboard/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type RouterConfig struct {
	Auth  *AuthHandler
	Task  *TaskHandler
	Admin *AdminHandler

	AuthMiddleware   *middleware.Auth
	RateLimiter      *middleware.RateLimiter
	LoggerMiddleware func(next http.Handler) http.Handler
}

func NewRouter(c RouterConfig) http.Handler {
	// Credential endpoints sit behind the rate limiter, everything the
	// limiter protects runs before any authentication
	limited := func(h http.HandlerFunc) http.Handler {
		return c.RateLimiter.Middleware(h)
	}
	withAuth := func(h http.HandlerFunc) http.Handler {
		return c.AuthMiddleware.Authenticate(h)
	}
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return chain(h,
			c.AuthMiddleware.Authenticate,
			middleware.RequireRoles(models.RoleAdmin),
		)
	}

	mux := http.NewServeMux()

	mux.Handle("POST /api/auth/register", limited(c.Auth.register))
	mux.Handle("POST /api/auth/login", limited(c.Auth.login))
	mux.Handle("POST /api/auth/refresh", limited(c.Auth.refresh))
	mux.Handle("POST /api/auth/logout", limited(c.Auth.logout))
	mux.Handle("POST /api/auth/logout-all", withAuth(c.Auth.logoutAll))
	mux.Handle("GET /api/auth/profile", withAuth(c.Auth.getProfile))

	mux.Handle("POST /api/tasks", withAuth(c.Task.create))
	mux.Handle("GET /api/tasks", withAuth(c.Task.list))
	mux.Handle("GET /api/tasks/{id}", withAuth(c.Task.get))
	mux.Handle("PATCH /api/tasks/{id}", withAuth(c.Task.update))
	mux.Handle("DELETE /api/tasks/{id}", withAuth(c.Task.delete))

	mux.Handle("GET /api/admin/users", adminOnly(c.Admin.listUsers))
	mux.Handle("PATCH /api/admin/users/{id}/role", adminOnly(c.Admin.updateUserRole))
	mux.Handle("DELETE /api/admin/users/{id}", adminOnly(c.Admin.deleteUser))
	mux.Handle("GET /api/admin/tasks", adminOnly(c.Admin.listTasks))

	return chain(mux, c.LoggerMiddleware)
}
