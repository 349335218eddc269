package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cashmais/internal/model"
	"github.com/iliyamo/cashmais/internal/repository"
	"github.com/iliyamo/cashmais/internal/utils"
)

var (
	// ErrSelfRedemption is returned when a cashier enters their own CPF.
	ErrSelfRedemption = errors.New("cashier cannot use own CPF")
	// ErrCustomerNotFound is returned when no active customer owns the CPF.
	ErrCustomerNotFound = errors.New("CPF not found or customer inactive")
	// ErrInvalidValue is returned for purchase values below one cent.
	ErrInvalidValue = errors.New("purchase value must be at least 0.01")
	// ErrValuePrecision is returned for values with fractions of a cent.
	ErrValuePrecision = errors.New("purchase value must have at most 2 decimal places")
	// ErrValueTooLarge is returned for values that do not fit DECIMAL(14,2).
	ErrValueTooLarge = errors.New("purchase value must be at most 999999999999.99")
)

var (
	minPurchaseValue = decimal.RequireFromString("0.01")
	maxPurchaseValue = decimal.RequireFromString("999999999999.99")
)

// ValidateValue checks that v is a storable amount of money: at least one
// cent, whole cents, and within the purchase_value column.
func ValidateValue(v decimal.Decimal) error {
	switch {
	case v.LessThan(minPurchaseValue):
		return ErrInvalidValue
	case !v.Equal(v.Round(2)):
		return ErrValuePrecision
	case v.GreaterThan(maxPurchaseValue):
		return ErrValueTooLarge
	}
	return nil
}

// CustomerDirectory resolves the identity that earns cashback for a CPF.
type CustomerDirectory interface {
	FindCustomerByCPF(ctx context.Context, cpf string) (model.Identity, error)
}

// CashbackSettings returns the configured percentage of a company.
type CashbackSettings interface {
	CashbackPercentage(ctx context.Context, companyID uint64) (decimal.Decimal, bool, error)
}

// PurchaseLedger writes a sale atomically.
type PurchaseLedger interface {
	Record(ctx context.Context, e repository.LedgerEntry) (repository.LedgerResult, error)
}

// PurchaseInput is a sale as entered at the register.
type PurchaseInput struct {
	Cashier     model.Cashier
	CustomerCPF string
	Value       decimal.Decimal
}

// PurchaseReceipt is what the cashier sees after a sale.
type PurchaseReceipt struct {
	PurchaseID         uint64
	CustomerName       string
	Cashback           decimal.Decimal // unrounded
	CommissionEstimate decimal.Decimal // zero for non-affiliates
	Message            string
}

// PurchaseRecorder validates and records cashier sales.
type PurchaseRecorder struct {
	Customers  CustomerDirectory
	Settings   CashbackSettings
	Ledger     PurchaseLedger
	Split      Split
	DefaultPct decimal.Decimal
	Now        func() time.Time
}

func NewPurchaseRecorder(c CustomerDirectory, s CashbackSettings, l PurchaseLedger, split Split, defaultPct decimal.Decimal) *PurchaseRecorder {
	return &PurchaseRecorder{Customers: c, Settings: s, Ledger: l, Split: split, DefaultPct: defaultPct, Now: time.Now}
}

// Cashback returns value × pct / 100 without rounding.
func Cashback(value, pct decimal.Decimal) decimal.Decimal {
	return value.Mul(pct).Div(hundred)
}

// Record runs the purchase flow for one sale.
func (p *PurchaseRecorder) Record(ctx context.Context, in PurchaseInput) (PurchaseReceipt, error) {
	if err := ValidateValue(in.Value); err != nil {
		return PurchaseReceipt{}, err
	}
	cpf := utils.NormalizeCPF(in.CustomerCPF)
	if cpf == "" {
		return PurchaseReceipt{}, ErrCustomerNotFound
	}
	if cpf == utils.NormalizeCPF(in.Cashier.CPF) {
		return PurchaseReceipt{}, ErrSelfRedemption
	}

	customer, err := p.Customers.FindCustomerByCPF(ctx, cpf)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return PurchaseReceipt{}, ErrCustomerNotFound
		}
		return PurchaseReceipt{}, fmt.Errorf("resolve customer: %w", err)
	}

	pct, ok, err := p.Settings.CashbackPercentage(ctx, in.Cashier.CompanyID)
	if err != nil {
		return PurchaseReceipt{}, fmt.Errorf("cashback config: %w", err)
	}
	if !ok {
		pct = p.DefaultPct
	}
	cashback := Cashback(in.Value, pct)

	res, err := p.Ledger.Record(ctx, repository.LedgerEntry{
		CompanyID:   in.Cashier.CompanyID,
		CashierID:   in.Cashier.ID,
		CashierCPF:  in.Cashier.CPF,
		CustomerCPF: cpf,
		Customer:    customer,
		Value:       in.Value,
		Percentage:  pct,
		Cashback:    cashback,
		At:          p.Now(),
	})
	if err != nil {
		return PurchaseReceipt{}, fmt.Errorf("record purchase: %w", err)
	}

	r := PurchaseReceipt{
		PurchaseID:   res.PurchaseID,
		CustomerName: customer.DisplayName(),
		Cashback:     cashback,
	}
	r.Message = fmt.Sprintf("Purchase recorded. Cashback of R$ %s generated for %s.", cashback.StringFixed(2), r.CustomerName)
	if customer.Kind == model.KindAffiliate {
		r.CommissionEstimate = p.Split.Buyer(cashback)
		r.Message += fmt.Sprintf(" Estimated commission: R$ %s.", r.CommissionEstimate.StringFixed(2))
	}
	return r, nil
}
