package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/cashmais/internal/config"
	"github.com/iliyamo/cashmais/internal/middleware"
	"github.com/iliyamo/cashmais/internal/model"
	"github.com/iliyamo/cashmais/internal/repository"
	"github.com/iliyamo/cashmais/internal/utils"
)

// CashierLoginStore is the cashier persistence used by login.
type CashierLoginStore interface {
	GetForLogin(ctx context.Context, digits, raw string) (model.Cashier, error)
	TouchLastAccess(ctx context.Context, id uint64, at time.Time) error
}

// CashierAuthHandler serves cashier login, me and logout.
type CashierAuthHandler struct {
	Cfg      config.Config
	Cashiers CashierLoginStore
	Sessions SessionStore
}

func NewCashierAuthHandler(cfg config.Config, cashiers CashierLoginStore, sessions SessionStore) *CashierAuthHandler {
	return &CashierAuthHandler{Cfg: cfg, Cashiers: cashiers, Sessions: sessions}
}

type cashierLoginReq struct {
	CPF      string `json:"cpf" validate:"required,min=10"`
	Password string `json:"password" validate:"required"`
}

func cashierView(k model.Cashier) echo.Map {
	return echo.Map{
		"id":           k.ID,
		"name":         k.Name,
		"cpf":          k.CPF,
		"company_name": k.CompanyName,
		"role":         "cashier",
	}
}

// Login handles POST /api/caixa/login.
func (h *CashierAuthHandler) Login(c echo.Context) error {
	var req cashierLoginReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	raw := strings.TrimSpace(req.CPF)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	k, err := h.Cashiers.GetForLogin(ctx, utils.NormalizeCPF(raw), raw)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusUnauthorized, "invalid credentials")
		}
		return internalError(c, err, "cashier login lookup")
	}
	if !utils.VerifyPassword(k.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "invalid credentials")
	}

	now := time.Now()
	if err := h.Cashiers.TouchLastAccess(ctx, k.ID, now); err != nil {
		log.Warn().Err(err).Uint64("cashier_id", k.ID).Msg("cashier login: last access update failed")
	}

	token, err := utils.NewSessionToken()
	if err != nil {
		return internalError(c, err, "mint cashier session")
	}
	if err := h.Sessions.Create(ctx, k.ID, token, now.Add(h.Cfg.CashierSessionTTL)); err != nil {
		return internalError(c, err, "store cashier session")
	}
	setSessionCookie(c, middleware.CashierCookie, token, h.Cfg.CashierSessionTTL)
	return success(c, echo.Map{"cashier": cashierView(k)})
}

// Me handles GET /api/caixa/me.
func (h *CashierAuthHandler) Me(c echo.Context) error {
	k, ok := middleware.CashierFrom(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	return success(c, echo.Map{"cashier": cashierView(k)})
}

// Logout handles POST /api/caixa/logout.
func (h *CashierAuthHandler) Logout(c echo.Context) error {
	if ck, err := c.Cookie(middleware.CashierCookie); err == nil && ck.Value != "" {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := h.Sessions.DeleteByToken(ctx, ck.Value); err != nil {
			log.Warn().Err(err).Msg("cashier logout: delete session failed")
		}
	}
	clearSessionCookie(c, middleware.CashierCookie)
	return success(c, nil)
}
