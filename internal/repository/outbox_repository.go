package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cashmais/internal/model"
)

// OutboxRepo reads and updates outbox_events for the relay.
type OutboxRepo struct{ DB *sql.DB }

func NewOutboxRepo(db *sql.DB) *OutboxRepo { return &OutboxRepo{DB: db} }

const maxLastErrorLen = 1024

func enqueueOutboxTx(ctx context.Context, tx *sql.Tx, eventID, eventType string, payload []byte, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO outbox_events (event_id, event_type, payload, status, available_at) VALUES (?,?,?,?,?)",
		eventID, eventType, payload, model.OutboxPending, at.UTC())
	return err
}

const outboxColumns = "id, event_id, event_type, payload, status, attempts, COALESCE(last_error,''), available_at, created_at"

func scanOutbox(row interface{ Scan(...any) error }) (model.OutboxEvent, error) {
	var e model.OutboxEvent
	err := row.Scan(&e.ID, &e.EventID, &e.EventType, &e.Payload, &e.Status, &e.Attempts,
		&e.LastError, &e.AvailableAt, &e.CreatedAt)
	return e, err
}

// GetByEventID loads one event by its public id.
func (r *OutboxRepo) GetByEventID(ctx context.Context, eventID string) (model.OutboxEvent, error) {
	e, err := scanOutbox(r.DB.QueryRowContext(ctx,
		"SELECT "+outboxColumns+" FROM outbox_events WHERE event_id=? LIMIT 1", eventID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.OutboxEvent{}, ErrNotFound
	}
	return e, err
}

// ListDue returns up to limit pending events whose available_at has passed,
// oldest first.
func (r *OutboxRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]model.OutboxEvent, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+outboxColumns+" FROM outbox_events WHERE status=? AND available_at <= ? ORDER BY id ASC LIMIT ?",
		model.OutboxPending, now.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.OutboxEvent, 0)
	for rows.Next() {
		e, err := scanOutbox(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkSent flags an event as delivered.
func (r *OutboxRepo) MarkSent(ctx context.Context, id uint64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE outbox_events SET status=?, attempts=attempts+1, last_error=NULL, sent_at=? WHERE id=?",
		model.OutboxSent, at.UTC(), id)
	return err
}

// MarkFailed records a failed attempt.  The event becomes PENDING and due
// again at retryAt, unless terminal is set, in which case it is FAILED for
// good.  A SENT event whose consumer failed is reopened the same way.
func (r *OutboxRepo) MarkFailed(ctx context.Context, id uint64, cause error, retryAt time.Time, terminal bool) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if len(msg) > maxLastErrorLen {
		msg = msg[:maxLastErrorLen]
	}
	status := model.OutboxPending
	if terminal {
		status = model.OutboxFailed
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE outbox_events SET status=?, attempts=attempts+1, last_error=?, available_at=? WHERE id=?",
		status, msg, retryAt.UTC(), id)
	return err
}
