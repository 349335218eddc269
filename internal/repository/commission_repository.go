package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cashmais/internal/database"
	"github.com/iliyamo/cashmais/internal/model"
)

// CommissionRepo persists credited commissions.
type CommissionRepo struct{ DB *sql.DB }

func NewCommissionRepo(db *sql.DB) *CommissionRepo { return &CommissionRepo{DB: db} }

// Credit inserts every commission in one transaction.  Rows that already
// exist for the same (purchase, beneficiary, level) are skipped, so a
// redelivered request credits nothing twice.  It returns the number of
// rows actually written.
func (r *CommissionRepo) Credit(ctx context.Context, cs []model.Commission) (int64, error) {
	var written int64
	err := database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		for _, c := range cs {
			res, err := tx.ExecContext(ctx,
				"INSERT IGNORE INTO commissions (purchase_id, beneficiary_identity_id, level, amount) VALUES (?,?,?,?)",
				c.PurchaseID, c.BeneficiaryID, c.Level, c.Amount.StringFixed(6))
			if err != nil {
				return err
			}
			n, _ := res.RowsAffected()
			written += n
		}
		return nil
	})
	return written, err
}

// ListByBeneficiary returns the commissions of an identity, newest first.
func (r *CommissionRepo) ListByBeneficiary(ctx context.Context, identityID uint64, limit int) ([]model.Commission, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, purchase_id, beneficiary_identity_id, level, amount, created_at FROM commissions "+
			"WHERE beneficiary_identity_id=? ORDER BY created_at DESC, id DESC LIMIT ?", identityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Commission, 0)
	for rows.Next() {
		var c model.Commission
		if err := rows.Scan(&c.ID, &c.PurchaseID, &c.BeneficiaryID, &c.Level, &c.Amount, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// TotalByBeneficiary sums every commission credited to an identity.
func (r *CommissionRepo) TotalByBeneficiary(ctx context.Context, identityID uint64) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.DB.QueryRowContext(ctx,
		"SELECT SUM(amount) FROM commissions WHERE beneficiary_identity_id=?", identityID).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
