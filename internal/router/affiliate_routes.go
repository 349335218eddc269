package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cashmais/internal/handler"
	"github.com/iliyamo/cashmais/internal/middleware"
)

// RegisterAffiliate mounts the affiliate endpoints.  Affiliates use bearer
// tokens rather than cookies.
func RegisterAffiliate(e *echo.Echo, a *handler.AffiliateHandler, jwtSecret string, edge Edge) {
	g := e.Group("/api/afiliado")
	g.POST("/registrar", a.Register, edge.RateLimit)
	g.POST("/login", a.Login, edge.RateLimit)

	auth := g.Group("",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleAffiliate),
	)
	auth.GET("/me", a.Me)
	auth.GET("/comissoes", a.Commissions)
}
