package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cashmais/internal/config"
	"github.com/iliyamo/cashmais/internal/middleware"
	"github.com/iliyamo/cashmais/internal/model"
	"github.com/iliyamo/cashmais/internal/repository"
	"github.com/iliyamo/cashmais/internal/utils"
)

type stubCompanies struct {
	createErr error
	created   []model.Company
	byEmail   map[string]model.Company
}

func (s *stubCompanies) Create(_ context.Context, c *model.Company, _ decimal.Decimal) error {
	if s.createErr != nil {
		return s.createErr
	}
	c.ID = uint64(len(s.created) + 1)
	s.created = append(s.created, *c)
	return nil
}

func (s *stubCompanies) GetActiveByEmail(_ context.Context, email string) (model.Company, error) {
	co, ok := s.byEmail[email]
	if !ok {
		return model.Company{}, repository.ErrNotFound
	}
	return co, nil
}

func (s *stubCompanies) GetActiveByCNPJ(context.Context, string, string) (model.Company, error) {
	return model.Company{}, repository.ErrNotFound
}

type stubSessionStore struct {
	created   []string
	deleted   []string
	deleteErr error
}

func (s *stubSessionStore) Create(_ context.Context, _ uint64, token string, _ time.Time) error {
	s.created = append(s.created, token)
	return nil
}

func (s *stubSessionStore) DeleteByToken(_ context.Context, token string) error {
	s.deleted = append(s.deleted, token)
	return s.deleteErr
}

func testConfig() config.Config {
	return config.Config{
		BcryptCost:         4,
		CompanySessionTTL:  24 * time.Hour,
		CashierSessionTTL:  8 * time.Hour,
		DefaultCashbackPct: decimal.NewFromInt(5),
		JWTSecret:          "test-secret",
		AccessTTLMin:       60,
	}
}

const registerBody = `{"razao_social":"Padaria Ltda","nome_fantasia":"Padaria","cnpj":"11.222.333/0001-81",
"email":"dono@padaria.com","telefone":"11999990000","responsavel":"Ana","senha":"secret1"}`

func TestCompanyRegister(t *testing.T) {
	store := &stubCompanies{}
	h := NewCompanyAuthHandler(testConfig(), store, &stubSessionStore{})
	e := newEcho()
	e.POST("/registrar", h.Register)

	rec := call(e, http.MethodPost, "/registrar", registerBody)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	require.Len(t, store.created, 1)
	assert.Equal(t, "11222333000181", store.created[0].CNPJ)
	assert.NotEqual(t, "secret1", store.created[0].PasswordHash)
}

func TestCompanyRegisterDuplicates(t *testing.T) {
	cases := map[string]struct {
		err  error
		want string
	}{
		"email": {repository.ErrEmailExists, "email already registered"},
		"cnpj":  {repository.ErrCNPJExists, "cnpj already registered"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := NewCompanyAuthHandler(testConfig(), &stubCompanies{createErr: tc.err}, &stubSessionStore{})
			e := newEcho()
			e.POST("/registrar", h.Register)

			rec := call(e, http.MethodPost, "/registrar", registerBody)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.want, decode(t, rec)["error"])
		})
	}
}

func TestCompanyRegisterValidation(t *testing.T) {
	store := &stubCompanies{}
	h := NewCompanyAuthHandler(testConfig(), store, &stubSessionStore{})
	e := newEcho()
	e.POST("/registrar", h.Register)

	rec := call(e, http.MethodPost, "/registrar", `{"email":"not-an-email","senha":"123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation failed", decode(t, rec)["error"])
	assert.Empty(t, store.created)
}

func companyWithPassword(t *testing.T, plain string) model.Company {
	t.Helper()
	hash, err := utils.HashPassword(plain, 4)
	require.NoError(t, err)
	return model.Company{ID: 9, Email: "dono@padaria.com", NomeFantasia: "Padaria", PasswordHash: hash, IsActive: true}
}

func TestCompanyLoginCookieFlags(t *testing.T) {
	co := companyWithPassword(t, "secret1")
	cases := []struct {
		name     string
		origin   string
		secure   bool
		sameSite http.SameSite
	}{
		{"remote frontend", "https://app.cashmais.com.br", true, http.SameSiteNoneMode},
		{"localhost", "http://localhost:5173", false, http.SameSiteLaxMode},
		{"loopback", "http://127.0.0.1:3000", false, http.SameSiteLaxMode},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sessions := &stubSessionStore{}
			store := &stubCompanies{byEmail: map[string]model.Company{co.Email: co}}
			h := NewCompanyAuthHandler(testConfig(), store, sessions)
			e := newEcho()
			e.POST("/login", h.Login)

			req := newJSONRequest(http.MethodPost, "/login", `{"email":"dono@padaria.com","senha":"secret1"}`)
			req.Header.Set("Origin", tc.origin)
			rec := serveRequest(e, req)
			require.Equal(t, http.StatusOK, rec.Code)

			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)
			ck := cookies[0]
			assert.Equal(t, middleware.CompanyCookie, ck.Name)
			assert.True(t, ck.HttpOnly)
			assert.Equal(t, tc.secure, ck.Secure)
			assert.Equal(t, tc.sameSite, ck.SameSite)
			assert.Equal(t, int((24 * time.Hour).Seconds()), ck.MaxAge)
			require.Len(t, sessions.created, 1)
			assert.Equal(t, sessions.created[0], ck.Value)
		})
	}
}

func TestCompanyLoginRejects(t *testing.T) {
	co := companyWithPassword(t, "secret1")
	store := &stubCompanies{byEmail: map[string]model.Company{co.Email: co}}
	sessions := &stubSessionStore{}
	h := NewCompanyAuthHandler(testConfig(), store, sessions)
	e := newEcho()
	e.POST("/login", h.Login)

	rec := call(e, http.MethodPost, "/login", `{"email":"dono@padaria.com","senha":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(e, http.MethodPost, "/login", `{"email":"ghost@padaria.com","senha":"secret1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", decode(t, rec)["error"])

	rec = call(e, http.MethodPost, "/login", `{"senha":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, sessions.created)
}

func TestCompanyLogoutAlwaysSucceeds(t *testing.T) {
	sessions := &stubSessionStore{deleteErr: errors.New("db down")}
	h := NewCompanyAuthHandler(testConfig(), &stubCompanies{}, sessions)
	e := newEcho()
	e.POST("/logout", h.Logout)

	rec := call(e, http.MethodPost, "/logout", "", companyCookie())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{testToken}, sessions.deleted)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)

	rec = call(e, http.MethodPost, "/logout", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, sessions.deleted, 1)
}

func TestCompanyMe(t *testing.T) {
	co := model.Company{ID: 3, NomeFantasia: "Padaria", Email: "dono@padaria.com"}
	h := NewCompanyAuthHandler(testConfig(), &stubCompanies{}, &stubSessionStore{})
	e := newEcho()
	e.GET("/me", h.Me, middleware.CompanySession(companySessions{co: co}))

	rec := call(e, http.MethodGet, "/me", "", companyCookie())
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode(t, rec)["company"].(map[string]any)
	assert.Equal(t, "Padaria", got["nome_fantasia"])
	assert.Equal(t, "company", got["role"])

	rec = call(e, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
