package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/cashmais/internal/middleware"
)

var (
	minCashbackPct = decimal.NewFromInt(1)
	maxCashbackPct = decimal.NewFromInt(20)
)

// SettingsHandler serves PUT /api/empresa/cashback.
type SettingsHandler struct {
	Settings CashbackStore
}

func NewSettingsHandler(s CashbackStore) *SettingsHandler { return &SettingsHandler{Settings: s} }

// UpdateCashback sets the company's percentage; it must lie in [1, 20].
func (h *SettingsHandler) UpdateCashback(c echo.Context) error {
	co, ok := middleware.CompanyFrom(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req struct {
		CashbackPercentage *decimal.Decimal `json:"cashback_percentage"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	pct := req.CashbackPercentage
	if pct == nil || pct.LessThan(minCashbackPct) || pct.GreaterThan(maxCashbackPct) {
		return fail(c, http.StatusBadRequest, "cashback_percentage must be between 1 and 20")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Settings.SetCashbackPercentage(ctx, co.ID, pct.Round(2)); err != nil {
		return internalError(c, err, "update cashback percentage")
	}
	return success(c, echo.Map{"message": "cashback percentage updated", "cashback_percentage": pct.Round(2)})
}
