package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Commission levels.
const (
	LevelBuyer   uint8 = 0
	LevelSponsor uint8 = 1
)

// Commission credits an identity with part of a purchase's cashback.  The
// triple (PurchaseID, BeneficiaryID, Level) is unique.
type Commission struct {
	ID            uint64          `json:"id"`
	PurchaseID    uint64          `json:"purchase_id"`
	BeneficiaryID uint64          `json:"beneficiary_identity_id"`
	Level         uint8           `json:"level"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
}
