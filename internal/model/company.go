package model

import "time"

// Company mirrors the `companies` table.  A company owns cashiers and a
// cashback configuration.
type Company struct {
	ID            uint64    `json:"id"`
	IdentityID    uint64    `json:"identity_id"`
	RazaoSocial   string    `json:"razao_social"`
	NomeFantasia  string    `json:"nome_fantasia"`
	CNPJ          string    `json:"cnpj"`
	Email         string    `json:"email"`
	Telefone      string    `json:"telefone"`
	Responsavel   string    `json:"responsavel"`
	PasswordHash  string    `json:"-"`
	Endereco      string    `json:"endereco"`
	SiteInstagram string    `json:"site_instagram"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
