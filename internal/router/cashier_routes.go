package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cashmais/internal/handler"
	"github.com/iliyamo/cashmais/internal/middleware"
)

// RegisterCashier mounts the register-side endpoints under /api/caixa.
func RegisterCashier(e *echo.Echo, a *handler.CashierAuthHandler, p *handler.PurchaseHandler, sessions middleware.CashierLookup, edge Edge) {
	g := e.Group("/api/caixa")
	g.POST("/login", a.Login, edge.RateLimit)
	g.POST("/logout", a.Logout)

	auth := g.Group("",
		middleware.CashierSession(sessions),
		middleware.RequireRole(middleware.RoleCashier),
	)
	auth.GET("/me", a.Me)
	auth.POST("/compra", p.Create)
}
