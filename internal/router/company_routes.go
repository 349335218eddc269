package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cashmais/internal/handler"
	"github.com/iliyamo/cashmais/internal/middleware"
)

// CompanyHandlers groups the handlers mounted under /api/empresa.
type CompanyHandlers struct {
	Auth     *handler.CompanyAuthHandler
	Cashiers *handler.CashierAdminHandler
	Reports  *handler.ReportHandler
	Settings *handler.SettingsHandler
}

// RegisterCompany mounts the company endpoints.  Registration, login and
// logout are public; everything else needs a company_session cookie.
func RegisterCompany(e *echo.Echo, h CompanyHandlers, sessions middleware.CompanyLookup, edge Edge) {
	g := e.Group("/api/empresa")
	g.POST("/registrar", h.Auth.Register, edge.RateLimit)
	g.POST("/login", h.Auth.Login, edge.RateLimit)
	g.POST("/logout", h.Auth.Logout)

	auth := g.Group("",
		middleware.CompanySession(sessions),
		middleware.RequireRole(middleware.RoleCompany),
	)
	auth.GET("/me", h.Auth.Me)

	// ---- Cashiers ----
	auth.POST("/caixas", h.Cashiers.Create)
	auth.GET("/caixas", h.Cashiers.List)
	auth.PUT("/caixas/:id", h.Cashiers.Update)
	auth.PATCH("/caixas/:id", h.Cashiers.Toggle)
	auth.PATCH("/caixas/:id/toggle", h.Cashiers.Toggle)
	auth.DELETE("/caixas/:id", h.Cashiers.Delete)

	// ---- Reports (cached per company) ----
	auth.GET("/relatorio", h.Reports.Report, edge.Cache)
	auth.GET("/estatisticas", h.Reports.Statistics, edge.Cache)
	auth.GET("/dados-mensais", h.Reports.Monthly, edge.Cache)

	auth.PUT("/cashback", h.Settings.UpdateCashback)
}
