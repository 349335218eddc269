// Package queue defines message payloads exchanged over the message broker
// and the RabbitMQ publisher/consumer that carry them.
package queue

import "github.com/shopspring/decimal"

// EventCommissionRequested is the outbox event type and default queue name
// for commission distribution requests.
const EventCommissionRequested = "commission.requested"

// CommissionRequestedEvent is written to the outbox when an affiliate makes
// a purchase.  It contains everything the distributor needs without
// reading the purchase row back.
type CommissionRequestedEvent struct {
	EventID         string          `json:"event_id"`
	PurchaseID      uint64          `json:"purchase_id"`
	CompanyID       uint64          `json:"company_id"`
	BuyerIdentityID uint64          `json:"buyer_identity_id"`
	BuyerKind       string          `json:"buyer_kind"`
	Cashback        decimal.Decimal `json:"cashback"`
	RequestedAt     string          `json:"requested_at"`
}
