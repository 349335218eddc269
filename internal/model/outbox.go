package model

import "time"

// Outbox statuses.
const (
	OutboxPending = "PENDING"
	OutboxSent    = "SENT"
	OutboxFailed  = "FAILED"
)

// OutboxEvent is a row of `outbox_events`, written in the same transaction
// as the state change it announces and dispatched later by the relay.
type OutboxEvent struct {
	ID          uint64
	EventID     string
	EventType   string
	Payload     []byte
	Status      string
	Attempts    int
	LastError   string
	AvailableAt time.Time
	CreatedAt   time.Time
	SentAt      *time.Time
}
