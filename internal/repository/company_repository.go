package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cashmais/internal/database"
	"github.com/iliyamo/cashmais/internal/model"
)

// CompanyRepo persists companies and their cashback configuration.
type CompanyRepo struct{ DB *sql.DB }

func NewCompanyRepo(db *sql.DB) *CompanyRepo { return &CompanyRepo{DB: db} }

const companyColumns = "c.id, c.identity_id, c.razao_social, c.nome_fantasia, c.cnpj, c.email, c.telefone, c.responsavel, c.password_hash, c.endereco, c.site_instagram, c.is_active, c.created_at, c.updated_at"

func scanCompany(row *sql.Row) (model.Company, error) {
	var c model.Company
	err := row.Scan(&c.ID, &c.IdentityID, &c.RazaoSocial, &c.NomeFantasia, &c.CNPJ, &c.Email, &c.Telefone,
		&c.Responsavel, &c.PasswordHash, &c.Endereco, &c.SiteInstagram, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Company{}, ErrNotFound
	}
	return c, err
}

// Create registers a company, its COMPANY identity and a cashback config
// with defaultPct in a single transaction.  An e-mail or CNPJ that is
// already registered fails before anything is written.
func (r *CompanyRepo) Create(ctx context.Context, c *model.Company, defaultPct decimal.Decimal) error {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.IsActive = true

	var exists int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM companies WHERE email=?", c.Email).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if exists > 0 {
		return ErrEmailExists
	}
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM companies WHERE cnpj=?", c.CNPJ).Scan(&exists); err != nil {
		return fmt.Errorf("check cnpj: %w", err)
	}
	if exists > 0 {
		return ErrCNPJExists
	}

	return database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		ident := model.Identity{Kind: model.KindCompany, FullName: c.NomeFantasia, IsActive: true}
		if err := createIdentityTx(ctx, tx, &ident); err != nil {
			return fmt.Errorf("create identity: %w", err)
		}
		c.IdentityID = ident.ID
		res, err := tx.ExecContext(ctx,
			`INSERT INTO companies (identity_id, razao_social, nome_fantasia, cnpj, email, telefone, responsavel,
			 password_hash, endereco, site_instagram, is_active) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			c.IdentityID, c.RazaoSocial, c.NomeFantasia, c.CNPJ, c.Email, c.Telefone, c.Responsavel,
			c.PasswordHash, c.Endereco, c.SiteInstagram, c.IsActive)
		if err != nil {
			if database.IsDuplicateKey(err) {
				if strings.Contains(err.Error(), "cnpj") {
					return ErrCNPJExists
				}
				return ErrEmailExists
			}
			return fmt.Errorf("insert company: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		c.ID = uint64(id)
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO company_cashback_config (company_id, cashback_percentage) VALUES (?,?)",
			c.ID, defaultPct); err != nil {
			return fmt.Errorf("insert cashback config: %w", err)
		}
		return nil
	})
}

// GetActiveByEmail fetches an active company by normalized e-mail.
func (r *CompanyRepo) GetActiveByEmail(ctx context.Context, email string) (model.Company, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanCompany(r.DB.QueryRowContext(ctx,
		"SELECT "+companyColumns+" FROM companies c WHERE c.email=? AND c.is_active=1 LIMIT 1", email))
}

// GetActiveByCNPJ fetches an active company by CNPJ.  The digits-only form
// is tried first, then the value exactly as typed.
func (r *CompanyRepo) GetActiveByCNPJ(ctx context.Context, digits, raw string) (model.Company, error) {
	c, err := scanCompany(r.DB.QueryRowContext(ctx,
		"SELECT "+companyColumns+" FROM companies c WHERE c.cnpj=? AND c.is_active=1 LIMIT 1", digits))
	if errors.Is(err, ErrNotFound) && raw != "" && raw != digits {
		return scanCompany(r.DB.QueryRowContext(ctx,
			"SELECT "+companyColumns+" FROM companies c WHERE c.cnpj=? AND c.is_active=1 LIMIT 1", raw))
	}
	return c, err
}

// GetBySessionToken joins company_sessions to companies and returns the
// owner of a non-expired session.  Expired, unknown or inactive all map to
// ErrNotFound.
func (r *CompanyRepo) GetBySessionToken(ctx context.Context, token string, now time.Time) (model.Company, error) {
	return scanCompany(r.DB.QueryRowContext(ctx,
		"SELECT "+companyColumns+" FROM company_sessions s JOIN companies c ON c.id = s.company_id "+
			"WHERE s.session_token=? AND s.expires_at > ? AND c.is_active=1 LIMIT 1", token, now.UTC()))
}

// CashbackPercentage returns the configured percentage of a company.  The
// boolean is false when no configuration row exists.
func (r *CompanyRepo) CashbackPercentage(ctx context.Context, companyID uint64) (decimal.Decimal, bool, error) {
	var pct decimal.Decimal
	err := r.DB.QueryRowContext(ctx,
		"SELECT cashback_percentage FROM company_cashback_config WHERE company_id=? LIMIT 1", companyID).Scan(&pct)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	return pct, true, nil
}

// SetCashbackPercentage creates or updates the company's configuration.
func (r *CompanyRepo) SetCashbackPercentage(ctx context.Context, companyID uint64, pct decimal.Decimal) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO company_cashback_config (company_id, cashback_percentage) VALUES (?,?) "+
			"ON DUPLICATE KEY UPDATE cashback_percentage=VALUES(cashback_percentage), updated_at=CURRENT_TIMESTAMP",
		companyID, pct)
	return err
}
