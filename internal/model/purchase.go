package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is an immutable ledger row of `company_purchases`.  Cashback is
// computed once when the purchase is recorded and never recomputed.
//
// Fields:
//  PurchaseDate – YYYY-MM-DD, used for month bucketing.
//  PurchaseTime – HH:MM:SS.
//  CashierName  – filled by report joins only.
type Purchase struct {
	ID                 uint64          `json:"id"`
	CompanyID          uint64          `json:"company_id"`
	CashierID          uint64          `json:"cashier_id"`
	CustomerCouponID   uint64          `json:"customer_coupon_id"`
	CustomerCoupon     string          `json:"customer_coupon"`
	CashierCPF         string          `json:"cashier_cpf"`
	PurchaseValue      decimal.Decimal `json:"purchase_value"`
	CashbackPercentage decimal.Decimal `json:"cashback_percentage"`
	CashbackGenerated  decimal.Decimal `json:"cashback_generated"`
	PurchaseDate       string          `json:"purchase_date"`
	PurchaseTime       string          `json:"purchase_time"`
	CreatedAt          time.Time       `json:"created_at"`
	CashierName        string          `json:"cashier_name,omitempty"`
}
