package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cashmais/internal/database"
	"github.com/iliyamo/cashmais/internal/model"
)

// IdentityRepo reads and writes the unified `identities` table.
type IdentityRepo struct{ DB *sql.DB }

func NewIdentityRepo(db *sql.DB) *IdentityRepo { return &IdentityRepo{DB: db} }

const identityColumns = "id, kind, COALESCE(cpf,''), full_name, COALESCE(email,''), COALESCE(password_hash,''), sponsor_id, is_active, created_at, updated_at"

func scanIdentity(row *sql.Row) (model.Identity, error) {
	var (
		i       model.Identity
		kind    string
		sponsor sql.NullInt64
	)
	err := row.Scan(&i.ID, &kind, &i.CPF, &i.FullName, &i.Email, &i.PasswordHash, &sponsor, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Identity{}, ErrNotFound
	}
	if err != nil {
		return model.Identity{}, err
	}
	i.Kind = model.IdentityKind(kind)
	if !i.Kind.Valid() {
		return model.Identity{}, fmt.Errorf("identity %d: unknown kind %q", i.ID, kind)
	}
	if sponsor.Valid {
		s := uint64(sponsor.Int64)
		i.SponsorID = &s
	}
	return i, nil
}

// GetByID fetches an identity by id regardless of its active flag.
func (r *IdentityRepo) GetByID(ctx context.Context, id uint64) (model.Identity, error) {
	return scanIdentity(r.DB.QueryRowContext(ctx,
		"SELECT "+identityColumns+" FROM identities WHERE id=? LIMIT 1", id))
}

// FindCustomerByCPF resolves the identity that should receive cashback for a
// normalized CPF.  Only active, non-company identities qualify and an
// affiliate wins over any other kind.
func (r *IdentityRepo) FindCustomerByCPF(ctx context.Context, cpf string) (model.Identity, error) {
	return scanIdentity(r.DB.QueryRowContext(ctx,
		"SELECT "+identityColumns+" FROM identities WHERE cpf=? AND is_active=1 AND kind<>'COMPANY' "+
			"ORDER BY kind='AFFILIATE' DESC, id ASC LIMIT 1", cpf))
}

// FindAffiliateByLogin fetches an active affiliate by CPF digits or e-mail.
func (r *IdentityRepo) FindAffiliateByLogin(ctx context.Context, login string) (model.Identity, error) {
	login = strings.TrimSpace(login)
	col := "cpf"
	if strings.Contains(login, "@") {
		col = "email"
		login = strings.ToLower(login)
	}
	return scanIdentity(r.DB.QueryRowContext(ctx,
		"SELECT "+identityColumns+" FROM identities WHERE "+col+"=? AND kind='AFFILIATE' AND is_active=1 LIMIT 1", login))
}

// getByCPFTx fetches any identity carrying cpf inside tx, locking the row.
func getByCPFTx(ctx context.Context, tx *sql.Tx, cpf string) (model.Identity, error) {
	return scanIdentity(tx.QueryRowContext(ctx,
		"SELECT "+identityColumns+" FROM identities WHERE cpf=? LIMIT 1 FOR UPDATE", cpf))
}

// createIdentityTx inserts i and sets its generated id.
func createIdentityTx(ctx context.Context, tx *sql.Tx, i *model.Identity) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO identities (kind, cpf, full_name, email, password_hash, sponsor_id, is_active) VALUES (?,?,?,?,?,?,?)",
		string(i.Kind), nullString(i.CPF), i.FullName, nullString(i.Email), nullString(i.PasswordHash), nullUint(i.SponsorID), i.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	i.ID = uint64(id)
	return nil
}

// CreateAffiliate registers a new affiliate.  sponsorCPF, when non-empty,
// must belong to an active affiliate.
func (r *IdentityRepo) CreateAffiliate(ctx context.Context, i *model.Identity, sponsorCPF string) error {
	i.Kind = model.KindAffiliate
	i.IsActive = true
	i.Email = strings.ToLower(strings.TrimSpace(i.Email))
	return database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := getByCPFTx(ctx, tx, i.CPF); err == nil {
			return ErrCPFExists
		} else if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("lookup cpf: %w", err)
		}
		if sponsorCPF != "" {
			sponsor, err := scanIdentity(tx.QueryRowContext(ctx,
				"SELECT "+identityColumns+" FROM identities WHERE cpf=? AND kind='AFFILIATE' AND is_active=1 LIMIT 1", sponsorCPF))
			if err != nil {
				return fmt.Errorf("sponsor: %w", err)
			}
			i.SponsorID = &sponsor.ID
		}
		if err := createIdentityTx(ctx, tx, i); err != nil {
			if database.IsDuplicateKey(err) {
				if strings.Contains(err.Error(), "email") {
					return ErrEmailExists
				}
				return ErrCPFExists
			}
			return err
		}
		return nil
	})
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullUint(p *uint64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
