package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/cashmais/internal/database"
	"github.com/iliyamo/cashmais/internal/model"
	"github.com/iliyamo/cashmais/internal/queue"
)

// PurchaseRepo persists the purchase ledger together with the coupon
// bookkeeping and the commission outbox.
type PurchaseRepo struct{ DB *sql.DB }

func NewPurchaseRepo(db *sql.DB) *PurchaseRepo { return &PurchaseRepo{DB: db} }

// LedgerEntry is everything needed to record one sale.  Cashback is already
// computed by the caller; the repository never recomputes it.
type LedgerEntry struct {
	CompanyID   uint64
	CashierID   uint64
	CashierCPF  string
	CustomerCPF string
	Customer    model.Identity
	Value       decimal.Decimal
	Percentage  decimal.Decimal
	Cashback    decimal.Decimal
	At          time.Time
}

// LedgerResult describes what Record wrote.
type LedgerResult struct {
	PurchaseID uint64
	CouponID   uint64
	EventID    string // empty when no commission was requested
}

// Record writes the coupon, purchase, usage counters and, for affiliate
// buyers, a commission.requested outbox event in a single transaction.
func (r *PurchaseRepo) Record(ctx context.Context, e LedgerEntry) (LedgerResult, error) {
	var out LedgerResult
	at := e.At.UTC()
	err := database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		coupon, err := resolveCouponTx(ctx, tx, e.CustomerCPF, e.Customer.ID)
		if err != nil {
			return fmt.Errorf("resolve coupon: %w", err)
		}
		couponID := coupon.ID
		out.CouponID = couponID

		res, err := tx.ExecContext(ctx,
			`INSERT INTO company_purchases (company_id, cashier_id, customer_coupon_id, customer_coupon, cashier_cpf,
			 purchase_value, cashback_percentage, cashback_generated, purchase_date, purchase_time)
			 VALUES (?,?,?,?,?,?,?,?,?,?)`,
			e.CompanyID, e.CashierID, couponID, e.CustomerCPF, e.CashierCPF,
			e.Value.StringFixed(2), e.Percentage.StringFixed(2), e.Cashback.StringFixed(6),
			at.Format("2006-01-02"), at.Format("15:04:05"))
		if err != nil {
			return fmt.Errorf("insert purchase: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		out.PurchaseID = uint64(id)

		if _, err := tx.ExecContext(ctx,
			"UPDATE customer_coupons SET total_usage_count = total_usage_count + 1, last_used_at=? WHERE id=?",
			at, couponID); err != nil {
			return fmt.Errorf("bump coupon usage: %w", err)
		}

		if e.Customer.Kind != model.KindAffiliate {
			return nil
		}
		ev := queue.CommissionRequestedEvent{
			EventID:         uuid.NewString(),
			PurchaseID:      out.PurchaseID,
			CompanyID:       e.CompanyID,
			BuyerIdentityID: e.Customer.ID,
			BuyerKind:       string(e.Customer.Kind),
			Cashback:        e.Cashback,
			RequestedAt:     at.Format(time.RFC3339),
		}
		payload, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if err := enqueueOutboxTx(ctx, tx, ev.EventID, queue.EventCommissionRequested, payload, at); err != nil {
			return fmt.Errorf("enqueue commission: %w", err)
		}
		out.EventID = ev.EventID
		return nil
	})
	return out, err
}

// resolveCouponTx returns the coupon keyed by cpf, creating it on first use
// and reactivating it when inactive.  The coupon is re-pointed at
// identityID when the resolved owner changed.
func resolveCouponTx(ctx context.Context, tx *sql.Tx, cpf string, identityID uint64) (model.CustomerCoupon, error) {
	c := model.CustomerCoupon{Code: cpf, CPF: cpf}
	err := tx.QueryRowContext(ctx,
		"SELECT id, identity_id, is_active FROM customer_coupons WHERE coupon_code=? LIMIT 1 FOR UPDATE", cpf).
		Scan(&c.ID, &c.IdentityID, &c.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO customer_coupons (coupon_code, identity_id, cpf, is_active) VALUES (?,?,?,1)",
			cpf, identityID, cpf)
		if err != nil {
			return model.CustomerCoupon{}, err
		}
		nid, err := res.LastInsertId()
		if err != nil {
			return model.CustomerCoupon{}, err
		}
		c.ID, c.IdentityID, c.IsActive = uint64(nid), identityID, true
		return c, nil
	}
	if err != nil {
		return model.CustomerCoupon{}, err
	}
	if !c.IsActive || c.IdentityID != identityID {
		if _, err := tx.ExecContext(ctx,
			"UPDATE customer_coupons SET is_active=1, identity_id=? WHERE id=?", identityID, c.ID); err != nil {
			return model.CustomerCoupon{}, err
		}
		c.IdentityID, c.IsActive = identityID, true
	}
	return c, nil
}

// ReportFilter narrows ListForReport.  Empty dates are ignored.
type ReportFilter struct {
	From  string // YYYY-MM-DD, inclusive
	To    string // YYYY-MM-DD, inclusive
	Limit int
}

// ListForReport returns the latest purchases of a company with the cashier
// name joined in.
func (r *PurchaseRepo) ListForReport(ctx context.Context, companyID uint64, f ReportFilter) ([]model.Purchase, error) {
	q := `SELECT p.id, p.company_id, p.cashier_id, p.customer_coupon_id, p.customer_coupon, p.cashier_cpf,
	      p.purchase_value, p.cashback_percentage, p.cashback_generated, p.purchase_date, p.purchase_time,
	      p.created_at, COALESCE(k.name,'')
	      FROM company_purchases p LEFT JOIN company_cashiers k ON k.id = p.cashier_id
	      WHERE p.company_id=?`
	args := []any{companyID}
	if f.From != "" {
		q += " AND p.purchase_date >= ?"
		args = append(args, f.From)
	}
	if f.To != "" {
		q += " AND p.purchase_date <= ?"
		args = append(args, f.To)
	}
	if f.Limit <= 0 {
		f.Limit = 100
	}
	q += " ORDER BY p.created_at DESC, p.id DESC LIMIT ?"
	args = append(args, f.Limit)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Purchase, 0)
	for rows.Next() {
		var (
			p    model.Purchase
			date time.Time
		)
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.CashierID, &p.CustomerCouponID, &p.CustomerCoupon, &p.CashierCPF,
			&p.PurchaseValue, &p.CashbackPercentage, &p.CashbackGenerated, &date, &p.PurchaseTime,
			&p.CreatedAt, &p.CashierName); err != nil {
			return nil, err
		}
		p.PurchaseDate = date.Format("2006-01-02")
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListForAggregation returns date, value and cashback of every purchase of
// a company on or after since (YYYY-MM-DD).  An empty since returns all.
func (r *PurchaseRepo) ListForAggregation(ctx context.Context, companyID uint64, since string) ([]model.Purchase, error) {
	q := "SELECT purchase_date, purchase_value, cashback_generated FROM company_purchases WHERE company_id=?"
	args := []any{companyID}
	if since != "" {
		q += " AND purchase_date >= ?"
		args = append(args, since)
	}
	q += " ORDER BY purchase_date ASC"

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Purchase, 0)
	for rows.Next() {
		var (
			p    model.Purchase
			date time.Time
		)
		if err := rows.Scan(&date, &p.PurchaseValue, &p.CashbackGenerated); err != nil {
			return nil, err
		}
		p.CompanyID = companyID
		p.PurchaseDate = date.Format("2006-01-02")
		out = append(out, p)
	}
	return out, rows.Err()
}
