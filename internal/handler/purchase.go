package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/cashmais/internal/middleware"
	"github.com/iliyamo/cashmais/internal/service"
)

// PurchaseService records a sale.
type PurchaseService interface {
	Record(ctx context.Context, in service.PurchaseInput) (service.PurchaseReceipt, error)
}

// PurchaseHandler serves POST /api/caixa/compra.
type PurchaseHandler struct {
	Purchases PurchaseService
}

func NewPurchaseHandler(p PurchaseService) *PurchaseHandler { return &PurchaseHandler{Purchases: p} }

type purchaseReq struct {
	CustomerCoupon string          `json:"customer_coupon" validate:"required"`
	PurchaseValue  decimal.Decimal `json:"purchase_value"`
}

// Create records a purchase for the authenticated cashier.
func (h *PurchaseHandler) Create(c echo.Context) error {
	k, ok := middleware.CashierFrom(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req purchaseReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	r, err := h.Purchases.Record(ctx, service.PurchaseInput{
		Cashier:     k,
		CustomerCPF: req.CustomerCoupon,
		Value:       req.PurchaseValue,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfRedemption),
			errors.Is(err, service.ErrCustomerNotFound),
			errors.Is(err, service.ErrInvalidValue),
			errors.Is(err, service.ErrValuePrecision),
			errors.Is(err, service.ErrValueTooLarge):
			return fail(c, http.StatusBadRequest, err.Error())
		}
		return internalError(c, err, "record purchase")
	}
	return success(c, echo.Map{
		"message":            r.Message,
		"cashback_generated": r.Cashback.StringFixed(2),
		"customer_name":      r.CustomerName,
		"purchase_id":        r.PurchaseID,
	})
}
