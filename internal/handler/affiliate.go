package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/cashmais/internal/config"
	"github.com/iliyamo/cashmais/internal/middleware"
	"github.com/iliyamo/cashmais/internal/model"
	"github.com/iliyamo/cashmais/internal/repository"
	"github.com/iliyamo/cashmais/internal/utils"
)

// AffiliateStore is the identity persistence used by affiliate endpoints.
type AffiliateStore interface {
	CreateAffiliate(ctx context.Context, i *model.Identity, sponsorCPF string) error
	FindAffiliateByLogin(ctx context.Context, login string) (model.Identity, error)
	GetByID(ctx context.Context, id uint64) (model.Identity, error)
}

// CommissionReader lists credited commissions.
type CommissionReader interface {
	ListByBeneficiary(ctx context.Context, identityID uint64, limit int) ([]model.Commission, error)
	TotalByBeneficiary(ctx context.Context, identityID uint64) (decimal.Decimal, error)
}

// AffiliateHandler serves affiliate registration, token login and the
// commission statement.
type AffiliateHandler struct {
	Cfg        config.Config
	Identities AffiliateStore
	Credits    CommissionReader
}

func NewAffiliateHandler(cfg config.Config, ids AffiliateStore, commissions CommissionReader) *AffiliateHandler {
	return &AffiliateHandler{Cfg: cfg, Identities: ids, Credits: commissions}
}

type affiliateRegisterReq struct {
	CPF        string `json:"cpf" validate:"required,cpf"`
	FullName   string `json:"full_name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	SponsorCPF string `json:"sponsor_cpf" validate:"omitempty,cpf"`
}

type affiliateLoginReq struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register handles POST /api/afiliado/registrar.
func (h *AffiliateHandler) Register(c echo.Context) error {
	var req affiliateRegisterReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return internalError(c, err, "hash affiliate password")
	}
	ident := &model.Identity{
		CPF:          utils.NormalizeCPF(req.CPF),
		FullName:     strings.TrimSpace(req.FullName),
		Email:        req.Email,
		PasswordHash: hash,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Identities.CreateAffiliate(ctx, ident, utils.NormalizeCPF(req.SponsorCPF)); err != nil {
		switch {
		case errors.Is(err, repository.ErrCPFExists):
			return fail(c, http.StatusConflict, "cpf already registered")
		case errors.Is(err, repository.ErrEmailExists):
			return fail(c, http.StatusConflict, "email already registered")
		case errors.Is(err, repository.ErrNotFound):
			return fail(c, http.StatusBadRequest, "sponsor not found")
		}
		return internalError(c, err, "register affiliate")
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "affiliate": ident})
}

// Login handles POST /api/afiliado/login with a CPF or e-mail.
func (h *AffiliateHandler) Login(c echo.Context) error {
	var req affiliateLoginReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	login := strings.TrimSpace(req.Login)
	if !strings.Contains(login, "@") {
		login = utils.NormalizeCPF(login)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ident, err := h.Identities.FindAffiliateByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusUnauthorized, "invalid credentials")
		}
		return internalError(c, err, "affiliate login lookup")
	}
	if !utils.VerifyPassword(ident.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "invalid credentials")
	}

	ttl := time.Duration(h.Cfg.AccessTTLMin) * time.Minute
	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, ident.ID, middleware.RoleAffiliate, ttl)
	if err != nil {
		return internalError(c, err, "issue affiliate token")
	}
	return success(c, echo.Map{
		"access_token": tok.Token,
		"token_type":   "Bearer",
		"expires_at":   tok.Exp,
		"affiliate":    ident,
	})
}

// Me handles GET /api/afiliado/me.
func (h *AffiliateHandler) Me(c echo.Context) error {
	id, ok := middleware.IdentityIDFrom(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ident, err := h.Identities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusUnauthorized, "unauthorized")
		}
		return internalError(c, err, "load affiliate")
	}
	if !ident.IsActive || ident.Kind != model.KindAffiliate {
		return fail(c, http.StatusForbidden, "forbidden")
	}
	return success(c, echo.Map{"affiliate": ident})
}

// Commissions handles GET /api/afiliado/comissoes.
func (h *AffiliateHandler) Commissions(c echo.Context) error {
	id, ok := middleware.IdentityIDFrom(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Credits.ListByBeneficiary(ctx, id, 100)
	if err != nil {
		return internalError(c, err, "list commissions")
	}
	total, err := h.Credits.TotalByBeneficiary(ctx, id)
	if err != nil {
		return internalError(c, err, "sum commissions")
	}
	return success(c, echo.Map{"commissions": list, "total": total.StringFixed(2)})
}
