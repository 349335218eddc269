package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cashmais/internal/middleware"
	"github.com/iliyamo/cashmais/internal/model"
	"github.com/iliyamo/cashmais/internal/repository"
	"github.com/iliyamo/cashmais/internal/utils"
)

type memAffiliates struct {
	byID      map[uint64]model.Identity
	createErr error
	sponsors  []string
}

func (m *memAffiliates) CreateAffiliate(_ context.Context, i *model.Identity, sponsorCPF string) error {
	if m.createErr != nil {
		return m.createErr
	}
	i.ID = uint64(len(m.byID) + 1)
	i.Kind = model.KindAffiliate
	i.IsActive = true
	m.byID[i.ID] = *i
	m.sponsors = append(m.sponsors, sponsorCPF)
	return nil
}

func (m *memAffiliates) FindAffiliateByLogin(_ context.Context, login string) (model.Identity, error) {
	for _, i := range m.byID {
		if i.Kind == model.KindAffiliate && i.IsActive && (i.CPF == login || i.Email == login) {
			return i, nil
		}
	}
	return model.Identity{}, repository.ErrNotFound
}

func (m *memAffiliates) GetByID(_ context.Context, id uint64) (model.Identity, error) {
	i, ok := m.byID[id]
	if !ok {
		return model.Identity{}, repository.ErrNotFound
	}
	return i, nil
}

type stubCommissions struct {
	list  []model.Commission
	total decimal.Decimal
}

func (s stubCommissions) ListByBeneficiary(context.Context, uint64, int) ([]model.Commission, error) {
	return s.list, nil
}

func (s stubCommissions) TotalByBeneficiary(context.Context, uint64) (decimal.Decimal, error) {
	return s.total, nil
}

func TestAffiliateRegisterAndLogin(t *testing.T) {
	store := &memAffiliates{byID: map[uint64]model.Identity{}}
	h := NewAffiliateHandler(testConfig(), store, stubCommissions{})
	e := newEcho()
	e.POST("/registrar", h.Register)
	e.POST("/login", h.Login)

	rec := call(e, http.MethodPost, "/registrar",
		`{"cpf":"529.982.247-25","full_name":"Bia","email":"bia@mail.com","password":"secret1","sponsor_cpf":"111.444.777-35"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"11144477735"}, store.sponsors)

	for _, login := range []string{"529.982.247-25", "52998224725", "bia@mail.com"} {
		rec = call(e, http.MethodPost, "/login", `{"login":"`+login+`","password":"secret1"}`)
		require.Equal(t, http.StatusOK, rec.Code, login)
		body := decode(t, rec)
		assert.Equal(t, "Bearer", body["token_type"])

		id, role, err := utils.ParseAccessToken("test-secret", body["access_token"].(string))
		require.NoError(t, err)
		assert.EqualValues(t, 1, id)
		assert.Equal(t, middleware.RoleAffiliate, role)
	}

	rec = call(e, http.MethodPost, "/login", `{"login":"bia@mail.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAffiliateRegisterErrors(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"cpf taken":       {repository.ErrCPFExists, http.StatusConflict},
		"email taken":     {repository.ErrEmailExists, http.StatusConflict},
		"unknown sponsor": {repository.ErrNotFound, http.StatusBadRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			store := &memAffiliates{byID: map[uint64]model.Identity{}, createErr: tc.err}
			e := newEcho()
			e.POST("/registrar", NewAffiliateHandler(testConfig(), store, stubCommissions{}).Register)

			rec := call(e, http.MethodPost, "/registrar",
				`{"cpf":"52998224725","full_name":"Bia","email":"bia@mail.com","password":"secret1"}`)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestAffiliateCommissions(t *testing.T) {
	store := &memAffiliates{byID: map[uint64]model.Identity{
		5: {ID: 5, Kind: model.KindAffiliate, IsActive: true, FullName: "Bia"},
	}}
	credits := stubCommissions{
		list:  []model.Commission{{PurchaseID: 1, BeneficiaryID: 5, Amount: decimal.RequireFromString("0.35")}},
		total: decimal.RequireFromString("0.35"),
	}
	h := NewAffiliateHandler(testConfig(), store, credits)
	e := newEcho()
	auth := []echo.MiddlewareFunc{middleware.JWTAuth("test-secret"), middleware.RequireRole(middleware.RoleAffiliate)}
	e.GET("/me", h.Me, auth...)
	e.GET("/comissoes", h.Commissions, auth...)

	tok, err := utils.NewAccessToken("test-secret", 5, middleware.RoleAffiliate, time.Minute)
	require.NoError(t, err)

	req := newJSONRequest(http.MethodGet, "/comissoes", "")
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := serveRequest(e, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "0.35", body["total"])
	assert.Len(t, body["commissions"], 1)

	req = newJSONRequest(http.MethodGet, "/me", "")
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec = serveRequest(e, req)
	require.Equal(t, http.StatusOK, rec.Code)

	store.byID[5] = model.Identity{ID: 5, Kind: model.KindAffiliate, IsActive: false}
	req = newJSONRequest(http.MethodGet, "/me", "")
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec = serveRequest(e, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
