package router // package router wires handlers and middleware onto echo routes

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cashmais/internal/handler"
)

// Edge bundles the per-route middleware shared by the route groups.
// RateLimit guards login and registration; Cache fronts report reads.
type Edge struct {
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

// RegisterRoutes registers the unauthenticated health check.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}
