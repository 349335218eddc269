package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/cashmais/internal/database"
	"github.com/iliyamo/cashmais/internal/model"
)

// CashierRepo persists company_cashiers and cascades session cleanup.
type CashierRepo struct{ DB *sql.DB }

func NewCashierRepo(db *sql.DB) *CashierRepo { return &CashierRepo{DB: db} }

const cashierColumns = "k.id, k.company_id, k.identity_id, k.name, k.cpf, k.password_hash, k.is_active, k.last_access_at, k.created_at, k.updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCashier(row rowScanner, extra ...any) (model.Cashier, error) {
	var (
		k    model.Cashier
		last sql.NullTime
	)
	dest := []any{&k.ID, &k.CompanyID, &k.IdentityID, &k.Name, &k.CPF, &k.PasswordHash, &k.IsActive, &last, &k.CreatedAt, &k.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Cashier{}, ErrNotFound
		}
		return model.Cashier{}, err
	}
	if last.Valid {
		t := last.Time
		k.LastAccessAt = &t
	}
	return k, nil
}

// Create adds a cashier to k.CompanyID.  A CPF already used by a cashier of
// the same company yields ErrCPFExists; one used by another company yields
// ErrConflict.  An existing identity for the CPF is reused, otherwise a
// CASHIER identity is created.
func (r *CashierRepo) Create(ctx context.Context, k *model.Cashier) error {
	k.IsActive = true
	return database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var owner uint64
		err := tx.QueryRowContext(ctx,
			"SELECT company_id FROM company_cashiers WHERE cpf=? LIMIT 1 FOR UPDATE", k.CPF).Scan(&owner)
		switch {
		case err == nil && owner == k.CompanyID:
			return ErrCPFExists
		case err == nil:
			return ErrConflict
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("lookup cashier cpf: %w", err)
		}

		ident, err := getByCPFTx(ctx, tx, k.CPF)
		if errors.Is(err, ErrNotFound) {
			ident = model.Identity{Kind: model.KindCashier, CPF: k.CPF, FullName: k.Name, IsActive: true}
			if err := createIdentityTx(ctx, tx, &ident); err != nil {
				return fmt.Errorf("create identity: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("lookup identity: %w", err)
		}
		k.IdentityID = ident.ID

		res, err := tx.ExecContext(ctx,
			"INSERT INTO company_cashiers (company_id, identity_id, name, cpf, password_hash, is_active) VALUES (?,?,?,?,?,?)",
			k.CompanyID, k.IdentityID, k.Name, k.CPF, k.PasswordHash, k.IsActive)
		if err != nil {
			if database.IsDuplicateKey(err) {
				return ErrConflict
			}
			return fmt.Errorf("insert cashier: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		k.ID = uint64(id)
		return nil
	})
}

// GetForLogin fetches an active cashier of an active company by CPF.  The
// digits-only form is tried first, then the raw value.
func (r *CashierRepo) GetForLogin(ctx context.Context, digits, raw string) (model.Cashier, error) {
	const q = "SELECT " + cashierColumns + ", co.nome_fantasia FROM company_cashiers k " +
		"JOIN companies co ON co.id = k.company_id WHERE k.cpf=? AND k.is_active=1 AND co.is_active=1 LIMIT 1"
	var name string
	k, err := scanCashier(r.DB.QueryRowContext(ctx, q, digits), &name)
	if errors.Is(err, ErrNotFound) && raw != "" && raw != digits {
		k, err = scanCashier(r.DB.QueryRowContext(ctx, q, raw), &name)
	}
	k.CompanyName = name
	return k, err
}

// GetBySessionToken returns the cashier owning a non-expired session.  The
// cashier and its company must both be active.
func (r *CashierRepo) GetBySessionToken(ctx context.Context, token string, now time.Time) (model.Cashier, error) {
	var name string
	k, err := scanCashier(r.DB.QueryRowContext(ctx,
		"SELECT "+cashierColumns+", co.nome_fantasia FROM cashier_sessions s "+
			"JOIN company_cashiers k ON k.id = s.cashier_id JOIN companies co ON co.id = k.company_id "+
			"WHERE s.session_token=? AND s.expires_at > ? AND k.is_active=1 AND co.is_active=1 LIMIT 1",
		token, now.UTC()), &name)
	k.CompanyName = name
	return k, err
}

// ListByCompany returns every cashier of companyID, newest first.
func (r *CashierRepo) ListByCompany(ctx context.Context, companyID uint64) ([]model.Cashier, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+cashierColumns+" FROM company_cashiers k WHERE k.company_id=? ORDER BY k.created_at DESC, k.id DESC",
		companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Cashier, 0)
	for rows.Next() {
		k, err := scanCashier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// GetByIDAndCompany fetches a cashier only if it belongs to companyID.
func (r *CashierRepo) GetByIDAndCompany(ctx context.Context, id, companyID uint64) (model.Cashier, error) {
	return scanCashier(r.DB.QueryRowContext(ctx,
		"SELECT "+cashierColumns+" FROM company_cashiers k WHERE k.id=? AND k.company_id=? LIMIT 1", id, companyID))
}

// UpdateByIDAndCompany changes the name and, when passwordHash is not
// empty, the password.
func (r *CashierRepo) UpdateByIDAndCompany(ctx context.Context, id, companyID uint64, name, passwordHash string) error {
	var err error
	if passwordHash == "" {
		_, err = r.DB.ExecContext(ctx,
			"UPDATE company_cashiers SET name=? WHERE id=? AND company_id=?", name, id, companyID)
	} else {
		_, err = r.DB.ExecContext(ctx,
			"UPDATE company_cashiers SET name=?, password_hash=? WHERE id=? AND company_id=?", name, passwordHash, id, companyID)
	}
	return err
}

// SetActive flips the active flag.  Deactivation deletes every session of
// the cashier in the same transaction.
func (r *CashierRepo) SetActive(ctx context.Context, id, companyID uint64, active bool) error {
	return database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE company_cashiers SET is_active=? WHERE id=? AND company_id=?", active, id, companyID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// MySQL reports 0 when the value is unchanged; confirm ownership.
			var exists int
			if err := tx.QueryRowContext(ctx,
				"SELECT COUNT(*) FROM company_cashiers WHERE id=? AND company_id=?", id, companyID).Scan(&exists); err != nil {
				return err
			}
			if exists == 0 {
				return ErrNotFound
			}
		}
		if !active {
			if err := deleteCashierSessionsTx(ctx, tx, id); err != nil {
				return fmt.Errorf("delete sessions: %w", err)
			}
		}
		return nil
	})
}

// DeleteByIDAndCompany removes a cashier that never recorded a purchase,
// deleting its sessions first.
func (r *CashierRepo) DeleteByIDAndCompany(ctx context.Context, id, companyID uint64) error {
	return database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM company_purchases WHERE cashier_id=?", id).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return ErrHasPurchases
		}
		if err := deleteCashierSessionsTx(ctx, tx, id); err != nil {
			return fmt.Errorf("delete sessions: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM company_cashiers WHERE id=? AND company_id=?", id, companyID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// TouchLastAccess records a successful login.
func (r *CashierRepo) TouchLastAccess(ctx context.Context, id uint64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE company_cashiers SET last_access_at=? WHERE id=?", at.UTC(), id)
	return err
}
