package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/cashmais/internal/config"
	"github.com/iliyamo/cashmais/internal/middleware"
	"github.com/iliyamo/cashmais/internal/model"
	"github.com/iliyamo/cashmais/internal/repository"
	"github.com/iliyamo/cashmais/internal/utils"
)

// CompanyStore is the company persistence used by registration and login.
type CompanyStore interface {
	Create(ctx context.Context, c *model.Company, defaultPct decimal.Decimal) error
	GetActiveByEmail(ctx context.Context, email string) (model.Company, error)
	GetActiveByCNPJ(ctx context.Context, digits, raw string) (model.Company, error)
}

// SessionStore persists opaque session tokens.
type SessionStore interface {
	Create(ctx context.Context, ownerID uint64, token string, exp time.Time) error
	DeleteByToken(ctx context.Context, token string) error
}

// CompanyAuthHandler serves company registration, login, me and logout.
type CompanyAuthHandler struct {
	Cfg       config.Config
	Companies CompanyStore
	Sessions  SessionStore
}

func NewCompanyAuthHandler(cfg config.Config, companies CompanyStore, sessions SessionStore) *CompanyAuthHandler {
	return &CompanyAuthHandler{Cfg: cfg, Companies: companies, Sessions: sessions}
}

type companyRegisterReq struct {
	RazaoSocial   string `json:"razao_social" validate:"required"`
	NomeFantasia  string `json:"nome_fantasia" validate:"required"`
	CNPJ          string `json:"cnpj" validate:"required,min=14,max=18,cnpj"`
	Email         string `json:"email" validate:"required,email"`
	Telefone      string `json:"telefone" validate:"required,min=10"`
	Responsavel   string `json:"responsavel" validate:"required"`
	Senha         string `json:"senha" validate:"required,min=6"`
	Endereco      string `json:"endereco"`
	SiteInstagram string `json:"site_instagram"`
}

type companyLoginReq struct {
	Email string `json:"email"`
	CNPJ  string `json:"cnpj"`
	Senha string `json:"senha"`
}

func companyView(co model.Company) echo.Map {
	return echo.Map{
		"id":            co.ID,
		"razao_social":  co.RazaoSocial,
		"nome_fantasia": co.NomeFantasia,
		"email":         co.Email,
		"role":          "company",
	}
}

// Register handles POST /api/empresa/registrar.
func (h *CompanyAuthHandler) Register(c echo.Context) error {
	var req companyRegisterReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	hash, err := utils.HashPassword(req.Senha, h.Cfg.BcryptCost)
	if err != nil {
		return internalError(c, err, "hash company password")
	}
	co := &model.Company{
		RazaoSocial:   strings.TrimSpace(req.RazaoSocial),
		NomeFantasia:  strings.TrimSpace(req.NomeFantasia),
		CNPJ:          utils.NormalizeCNPJ(req.CNPJ),
		Email:         req.Email,
		Telefone:      strings.TrimSpace(req.Telefone),
		Responsavel:   strings.TrimSpace(req.Responsavel),
		PasswordHash:  hash,
		Endereco:      strings.TrimSpace(req.Endereco),
		SiteInstagram: strings.TrimSpace(req.SiteInstagram),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Companies.Create(ctx, co, h.Cfg.DefaultCashbackPct); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return fail(c, http.StatusBadRequest, "email already registered")
		case errors.Is(err, repository.ErrCNPJExists):
			return fail(c, http.StatusBadRequest, "cnpj already registered")
		}
		return internalError(c, err, "register company")
	}
	return success(c, echo.Map{"message": "company registered", "company_id": co.ID})
}

// Login handles POST /api/empresa/login.  Either e-mail or CNPJ identifies
// the company.
func (h *CompanyAuthHandler) Login(c echo.Context) error {
	var req companyLoginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	email := strings.TrimSpace(req.Email)
	cnpj := strings.TrimSpace(req.CNPJ)
	if email == "" && cnpj == "" {
		return fail(c, http.StatusBadRequest, "email or cnpj is required")
	}
	if req.Senha == "" {
		return fail(c, http.StatusBadRequest, "senha is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var (
		co  model.Company
		err error
	)
	if email != "" {
		co, err = h.Companies.GetActiveByEmail(ctx, email)
	} else {
		co, err = h.Companies.GetActiveByCNPJ(ctx, utils.NormalizeCNPJ(cnpj), cnpj)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusUnauthorized, "invalid credentials")
		}
		return internalError(c, err, "company login lookup")
	}
	if !utils.VerifyPassword(co.PasswordHash, req.Senha) {
		return fail(c, http.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.NewSessionToken()
	if err != nil {
		return internalError(c, err, "mint company session")
	}
	if err := h.Sessions.Create(ctx, co.ID, token, time.Now().Add(h.Cfg.CompanySessionTTL)); err != nil {
		return internalError(c, err, "store company session")
	}
	setSessionCookie(c, middleware.CompanyCookie, token, h.Cfg.CompanySessionTTL)
	return success(c, echo.Map{"company": companyView(co)})
}

// Me handles GET /api/empresa/me.
func (h *CompanyAuthHandler) Me(c echo.Context) error {
	co, ok := middleware.CompanyFrom(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	return success(c, echo.Map{"company": companyView(co)})
}

// Logout handles POST /api/empresa/logout.  It always succeeds; a failed
// delete is only logged.
func (h *CompanyAuthHandler) Logout(c echo.Context) error {
	if ck, err := c.Cookie(middleware.CompanyCookie); err == nil && ck.Value != "" {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := h.Sessions.DeleteByToken(ctx, ck.Value); err != nil {
			log.Warn().Err(err).Msg("company logout: delete session failed")
		}
	}
	clearSessionCookie(c, middleware.CompanyCookie)
	return success(c, nil)
}
