package model

import "time"

// Cashier mirrors the `company_cashiers` table.  A cashier belongs to
// exactly one company and is linked to an identity of its own CPF.
//
// Fields:
//  ID           – primary key identifier.
//  CompanyID    – owning company.
//  IdentityID   – identity row of the cashier's CPF.
//  Name         – display name.
//  CPF          – normalized national ID used to log in.
//  PasswordHash – bcrypt hash.
//  IsActive     – inactive cashiers cannot log in; their sessions are deleted.
//  LastAccessAt – last successful login (nullable).
type Cashier struct {
	ID           uint64     `json:"id"`
	CompanyID    uint64     `json:"company_id"`
	IdentityID   uint64     `json:"identity_id"`
	Name         string     `json:"name"`
	CPF          string     `json:"cpf"`
	PasswordHash string     `json:"-"`
	IsActive     bool       `json:"is_active"`
	LastAccessAt *time.Time `json:"last_access_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// CompanyName is filled by joins against companies.nome_fantasia.
	CompanyName string `json:"company_name,omitempty"`
}
