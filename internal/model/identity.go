package model

import "time"

// IdentityKind discriminates the single identities table.  Every person or
// organisation that can earn cashback, record a sale or own a company has
// exactly one identity row.
type IdentityKind string

const (
	KindAffiliate IdentityKind = "AFFILIATE"
	KindCashier   IdentityKind = "CASHIER"
	KindCompany   IdentityKind = "COMPANY"
	KindUser      IdentityKind = "USER"
)

// Valid reports whether k is one of the known kinds.
func (k IdentityKind) Valid() bool {
	switch k {
	case KindAffiliate, KindCashier, KindCompany, KindUser:
		return true
	}
	return false
}

// Identity represents a row of the `identities` table.
//
// Fields:
//  ID           – primary key identifier.
//  Kind         – discriminant (AFFILIATE, CASHIER, COMPANY, USER).
//  CPF          – normalized national ID (digits only); empty for companies.
//  FullName     – display name used in purchase confirmations.
//  Email        – optional login e-mail (affiliates).
//  PasswordHash – bcrypt hash; only affiliates log in through their identity.
//  SponsorID    – identity that referred this one (nullable).
//  IsActive     – inactive identities cannot receive cashback.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Identity struct {
	ID           uint64       `json:"id"`
	Kind         IdentityKind `json:"kind"`
	CPF          string       `json:"cpf,omitempty"`
	FullName     string       `json:"full_name"`
	Email        string       `json:"email,omitempty"`
	PasswordHash string       `json:"-"`
	SponsorID    *uint64      `json:"sponsor_id,omitempty"`
	IsActive     bool         `json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// DisplayName returns the full name, falling back to the CPF.
func (i Identity) DisplayName() string {
	if i.FullName != "" {
		return i.FullName
	}
	return i.CPF
}
