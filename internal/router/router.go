// Package router registers the HTTP routes of each service.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/project-tracker/internal/handler"
	"github.com/iliyamo/project-tracker/internal/middleware"
)

// RegisterRoutes registers the unauthenticated operational endpoints every
// service exposes.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc, metrics http.Handler) {
	e.GET("/healthz", health)
	e.GET("/metrics", echo.WrapHandler(metrics))
}

// RegisterIdentity registers /api/auth. Register, login and validate are
// public and rate limited; /me requires a bearer token.
func RegisterIdentity(e *echo.Echo, a *handler.AuthHandler, guard *middleware.Guard, limit echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register, limit)
	g.POST("/login", a.Login, limit)
	g.POST("/validate", a.Validate, limit)

	me := g.Group("/me", guard.BearerAuth())
	me.GET("", a.Me)
	me.DELETE("", a.DeleteMe)
}

// RegisterProject registers /api/projects, all behind the bearer guard.
func RegisterProject(e *echo.Echo, p *handler.ProjectHandler, guard *middleware.Guard) {
	g := e.Group("/api/projects", guard.BearerAuth())
	g.POST("", p.Create)
	g.GET("", p.List)
	g.GET("/search", p.Search)
	g.GET("/:id", p.Get)
	g.HEAD("/:id", p.Probe)
	g.PUT("/:id", p.Update)
	g.DELETE("/:id", p.Delete)
}

// RegisterTask registers /api/tasks, all behind the bearer guard.
func RegisterTask(e *echo.Echo, t *handler.TaskHandler, guard *middleware.Guard) {
	g := e.Group("/api/tasks", guard.BearerAuth())
	g.POST("", t.Create)
	g.GET("/project/:projectId", t.ListByProject)
	g.GET("/project/:projectId/search", t.Search)
	g.GET("/project/:projectId/filter", t.Filter)
	g.GET("/project/:projectId/stats", t.Stats)
	g.GET("/:id", t.Get)
	g.PUT("/:id", t.Update)
	g.PATCH("/:id/toggle", t.Toggle)
	g.DELETE("/:id", t.Delete)
}
