package middleware

// identity.go holds the context keys set by the authentication middleware
// and the accessors handlers use to read the authenticated actor back.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cashmais/internal/model"
)

// Roles stored under the "role" context key.
const (
	RoleCompany   = "COMPANY"
	RoleCashier   = "CASHIER"
	RoleAffiliate = string(model.KindAffiliate)
)

const (
	keyCompany    = "company"
	keyCashier    = "cashier"
	keyIdentityID = "identity_id"
	keyRole       = "role"
)

// CompanyFrom returns the company authenticated by CompanySession.
func CompanyFrom(c echo.Context) (model.Company, bool) {
	v, ok := c.Get(keyCompany).(model.Company)
	return v, ok
}

// CashierFrom returns the cashier authenticated by CashierSession.
func CashierFrom(c echo.Context) (model.Cashier, bool) {
	v, ok := c.Get(keyCashier).(model.Cashier)
	return v, ok
}

// IdentityIDFrom returns the identity id carried by a bearer token.
func IdentityIDFrom(c echo.Context) (uint64, bool) {
	v, ok := c.Get(keyIdentityID).(uint64)
	return v, ok && v != 0
}

// actorKey identifies the caller for cache and rate-limit keys.  It returns
// "guest" for unauthenticated requests.
func actorKey(c echo.Context) string {
	if co, ok := CompanyFrom(c); ok {
		return "company:" + strconv.FormatUint(co.ID, 10)
	}
	if k, ok := CashierFrom(c); ok {
		return "cashier:" + strconv.FormatUint(k.ID, 10)
	}
	if id, ok := IdentityIDFrom(c); ok {
		return "identity:" + strconv.FormatUint(id, 10)
	}
	return "guest"
}
