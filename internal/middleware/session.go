package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/cashmais/internal/model"
	"github.com/iliyamo/cashmais/internal/repository"
)

// Session cookie names.
const (
	CompanyCookie = "company_session"
	CashierCookie = "cashier_session"
)

// CompanyLookup resolves a company session token.
type CompanyLookup interface {
	GetBySessionToken(ctx context.Context, token string, now time.Time) (model.Company, error)
}

// CashierLookup resolves a cashier session token.
type CashierLookup interface {
	GetBySessionToken(ctx context.Context, token string, now time.Time) (model.Cashier, error)
}

// CompanySession authenticates requests carrying a company_session cookie.
// Unknown, expired or inactive sessions get 401.
func CompanySession(l CompanyLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := sessionToken(c, CompanyCookie)
			if !ok {
				return unauthorized(c)
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			co, err := l.GetBySessionToken(ctx, token, time.Now())
			if err != nil {
				return sessionError(c, err)
			}
			c.Set(keyCompany, co)
			c.Set(keyRole, RoleCompany)
			return next(c)
		}
	}
}

// CashierSession authenticates requests carrying a cashier_session cookie.
func CashierSession(l CashierLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := sessionToken(c, CashierCookie)
			if !ok {
				return unauthorized(c)
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			k, err := l.GetBySessionToken(ctx, token, time.Now())
			if err != nil {
				return sessionError(c, err)
			}
			c.Set(keyCashier, k)
			c.Set(keyRole, RoleCashier)
			return next(c)
		}
	}
}

func sessionToken(c echo.Context, name string) (string, bool) {
	ck, err := c.Cookie(name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

func sessionError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return unauthorized(c)
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("session lookup failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}
