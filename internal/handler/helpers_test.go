package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cashmais/internal/middleware"
	"github.com/iliyamo/cashmais/internal/model"
	"github.com/iliyamo/cashmais/internal/repository"
)

const testToken = "tok"

type companySessions struct{ co model.Company }

func (s companySessions) GetBySessionToken(_ context.Context, token string, _ time.Time) (model.Company, error) {
	if token != testToken {
		return model.Company{}, repository.ErrNotFound
	}
	return s.co, nil
}

type cashierSessions struct{ k model.Cashier }

func (s cashierSessions) GetBySessionToken(_ context.Context, token string, _ time.Time) (model.Cashier, error) {
	if token != testToken {
		return model.Cashier{}, repository.ErrNotFound
	}
	return s.k, nil
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func newJSONRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return req
}

func serveRequest(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// call performs method path against e with an optional JSON body.
func call(e *echo.Echo, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := newJSONRequest(method, path, body)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	return serveRequest(e, req)
}

func companyCookie() *http.Cookie {
	return &http.Cookie{Name: middleware.CompanyCookie, Value: testToken}
}

func cashierCookie() *http.Cookie {
	return &http.Cookie{Name: middleware.CashierCookie, Value: testToken}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
