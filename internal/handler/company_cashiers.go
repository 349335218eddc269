package handler // company-side cashier management

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cashmais/internal/config"
	"github.com/iliyamo/cashmais/internal/middleware"
	"github.com/iliyamo/cashmais/internal/model"
	"github.com/iliyamo/cashmais/internal/repository"
	"github.com/iliyamo/cashmais/internal/utils"
)

// CashierAdminStore is the cashier persistence used by company endpoints.
type CashierAdminStore interface {
	Create(ctx context.Context, k *model.Cashier) error
	ListByCompany(ctx context.Context, companyID uint64) ([]model.Cashier, error)
	GetByIDAndCompany(ctx context.Context, id, companyID uint64) (model.Cashier, error)
	UpdateByIDAndCompany(ctx context.Context, id, companyID uint64, name, passwordHash string) error
	SetActive(ctx context.Context, id, companyID uint64, active bool) error
	DeleteByIDAndCompany(ctx context.Context, id, companyID uint64) error
}

// CashierAdminHandler lets a company manage its cashiers.
type CashierAdminHandler struct {
	Cfg      config.Config
	Cashiers CashierAdminStore
}

func NewCashierAdminHandler(cfg config.Config, cashiers CashierAdminStore) *CashierAdminHandler {
	return &CashierAdminHandler{Cfg: cfg, Cashiers: cashiers}
}

type createCashierReq struct {
	Name     string `json:"name" validate:"required"`
	CPF      string `json:"cpf" validate:"required,min=11,max=14,cpf"`
	Password string `json:"password" validate:"required,min=6"`
}

type updateCashierReq struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// companyAndID reads the authenticated company and the :id path parameter.
// It writes the error response itself and returns ok=false on failure.
func companyAndID(c echo.Context) (model.Company, uint64, bool, error) {
	co, ok := middleware.CompanyFrom(c)
	if !ok {
		return co, 0, false, fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return co, 0, false, fail(c, http.StatusBadRequest, "invalid id")
	}
	return co, id, true, nil
}

// Create handles POST /api/empresa/caixas.
func (h *CashierAdminHandler) Create(c echo.Context) error {
	co, ok := middleware.CompanyFrom(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req createCashierReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return internalError(c, err, "hash cashier password")
	}
	k := &model.Cashier{
		CompanyID:    co.ID,
		Name:         strings.TrimSpace(req.Name),
		CPF:          utils.NormalizeCPF(req.CPF),
		PasswordHash: hash,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Cashiers.Create(ctx, k); err != nil {
		switch {
		case errors.Is(err, repository.ErrCPFExists):
			return fail(c, http.StatusBadRequest, "cpf already registered for this company")
		case errors.Is(err, repository.ErrConflict):
			return fail(c, http.StatusConflict, "cpf already linked to another company")
		}
		return internalError(c, err, "create cashier")
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "cashier created", "cashier": k})
}

// List handles GET /api/empresa/caixas.
func (h *CashierAdminHandler) List(c echo.Context) error {
	co, ok := middleware.CompanyFrom(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Cashiers.ListByCompany(ctx, co.ID)
	if err != nil {
		return internalError(c, err, "list cashiers")
	}
	return success(c, echo.Map{"cashiers": list})
}

// Update handles PUT /api/empresa/caixas/:id.  The password changes only
// when a value of at least six characters is sent.
func (h *CashierAdminHandler) Update(c echo.Context) error {
	co, id, ok, err := companyAndID(c)
	if !ok {
		return err
	}
	var req updateCashierReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cur, err := h.Cashiers.GetByIDAndCompany(ctx, id, co.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "cashier not found")
		}
		return internalError(c, err, "load cashier")
	}

	name := cur.Name
	if n := strings.TrimSpace(req.Name); n != "" {
		name = n
	}
	hash := ""
	if len(req.Password) >= utils.MinPasswordLen {
		if hash, err = utils.HashPassword(req.Password, h.Cfg.BcryptCost); err != nil {
			return internalError(c, err, "hash cashier password")
		}
	}
	if err := h.Cashiers.UpdateByIDAndCompany(ctx, id, co.ID, name, hash); err != nil {
		return internalError(c, err, "update cashier")
	}
	return success(c, echo.Map{"message": "cashier updated"})
}

// Toggle handles PATCH /api/empresa/caixas/:id and /caixas/:id/toggle.  A
// body of {"is_active": bool} sets the flag explicitly; otherwise it flips.
// Deactivating deletes the cashier's sessions.
func (h *CashierAdminHandler) Toggle(c echo.Context) error {
	co, id, ok, err := companyAndID(c)
	if !ok {
		return err
	}
	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return fail(c, http.StatusBadRequest, "invalid request body")
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cur, err := h.Cashiers.GetByIDAndCompany(ctx, id, co.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "cashier not found")
		}
		return internalError(c, err, "load cashier")
	}
	active := !cur.IsActive
	if req.IsActive != nil {
		active = *req.IsActive
	}
	if err := h.Cashiers.SetActive(ctx, id, co.ID, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "cashier not found")
		}
		return internalError(c, err, "toggle cashier")
	}
	msg := "cashier blocked"
	if active {
		msg = "cashier activated"
	}
	return success(c, echo.Map{"message": msg, "is_active": active})
}

// Delete handles DELETE /api/empresa/caixas/:id.  Cashiers with recorded
// sales must be blocked instead.
func (h *CashierAdminHandler) Delete(c echo.Context) error {
	co, id, ok, err := companyAndID(c)
	if !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Cashiers.GetByIDAndCompany(ctx, id, co.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "cashier not found")
		}
		return internalError(c, err, "load cashier")
	}
	if err := h.Cashiers.DeleteByIDAndCompany(ctx, id, co.ID); err != nil {
		switch {
		case errors.Is(err, repository.ErrHasPurchases):
			return fail(c, http.StatusBadRequest, "cashier has recorded sales; block it instead of deleting")
		case errors.Is(err, repository.ErrNotFound):
			return fail(c, http.StatusNotFound, "cashier not found")
		}
		return internalError(c, err, "delete cashier")
	}
	return success(c, echo.Map{"message": "cashier deleted"})
}
