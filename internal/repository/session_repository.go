package repository

import (
	"context"
	"database/sql"
	"time"
)

// SessionRepo persists opaque session tokens for one owner kind.  The
// company and cashier tables share a layout; only the table name and owner
// column differ.
type SessionRepo struct {
	DB    *sql.DB
	table string
	owner string
}

func NewCompanySessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{DB: db, table: "company_sessions", owner: "company_id"}
}

func NewCashierSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{DB: db, table: "cashier_sessions", owner: "cashier_id"}
}

// Create stores a new session row.
func (r *SessionRepo) Create(ctx context.Context, ownerID uint64, token string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO "+r.table+" ("+r.owner+", session_token, expires_at) VALUES (?,?,?)",
		ownerID, token, exp.UTC())
	return err
}

// DeleteByToken removes a single session.  Deleting a missing token is not
// an error.
func (r *SessionRepo) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM "+r.table+" WHERE session_token=?", token)
	return err
}

func deleteCashierSessionsTx(ctx context.Context, tx *sql.Tx, cashierID uint64) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM cashier_sessions WHERE cashier_id=?", cashierID)
	return err
}
