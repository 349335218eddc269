package worker

// outbox_relay.go
// Background goroutine that drains outbox_events.  Each due event is handed
// to a Dispatcher; success marks it SENT, failure records the attempt and
// schedules a retry with exponential backoff until MaxAttempts, after which
// the event is parked as FAILED.  Failures reported by the commission
// consumer after a SENT event was delivered reopen the row the same way.

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/cashmais/internal/model"
	"github.com/iliyamo/cashmais/internal/repository"
)

const maxRetryBackoff = 5 * time.Minute

// OutboxStore is the subset of the outbox repository the relay needs.
type OutboxStore interface {
	GetByEventID(ctx context.Context, eventID string) (model.OutboxEvent, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.OutboxEvent, error)
	MarkSent(ctx context.Context, id uint64, at time.Time) error
	MarkFailed(ctx context.Context, id uint64, cause error, retryAt time.Time, terminal bool) error
}

// Dispatcher delivers one outbox event.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev model.OutboxEvent) error
}

// OutboxRelay polls the store and dispatches due events.
type OutboxRelay struct {
	Store       OutboxStore
	Dispatcher  Dispatcher
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	Now         func() time.Time
}

// NewOutboxRelay returns a relay with the given polling settings.
func NewOutboxRelay(store OutboxStore, d Dispatcher, interval time.Duration, batch, maxAttempts int) *OutboxRelay {
	return &OutboxRelay{
		Store:       store,
		Dispatcher:  d,
		Interval:    interval,
		BatchSize:   batch,
		MaxAttempts: maxAttempts,
		Now:         time.Now,
	}
}

// Start launches the relay goroutine.  It stops when ctx is cancelled.
func (r *OutboxRelay) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", r.Interval).Msg("outbox_relay: started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("outbox_relay: shutting down")
				return
			case <-ticker.C:
				r.RunOnce(ctx)
			}
		}
	}()
}

// RunOnce dispatches one batch and reports how many events were sent and
// how many failed.
func (r *OutboxRelay) RunOnce(ctx context.Context) (sent, failed int) {
	events, err := r.Store.ListDue(ctx, r.Now(), r.BatchSize)
	if err != nil {
		log.Error().Err(err).Msg("outbox_relay: failed to list due events")
		return 0, 0
	}
	for _, ev := range events {
		if ctx.Err() != nil {
			return
		}
		if err := r.Dispatcher.Dispatch(ctx, ev); err != nil {
			failed++
			if err := r.fail(ctx, ev, err); err != nil {
				log.Error().Err(err).Str("event_id", ev.EventID).Msg("outbox_relay: mark failed failed")
			}
			continue
		}
		if err := r.Store.MarkSent(ctx, ev.ID, r.Now()); err != nil {
			// The event will be dispatched again; consumers are idempotent.
			log.Error().Err(err).Str("event_id", ev.EventID).Msg("outbox_relay: mark sent failed")
			continue
		}
		sent++
	}
	if sent+failed > 0 {
		log.Info().Int("sent", sent).Int("failed", failed).Msg("outbox_relay: batch processed")
	}
	return sent, failed
}

// Reopen records a failure that happened after the event left the outbox,
// so the relay dispatches it again or parks it as FAILED.  An unknown event
// id is logged and dropped.
func (r *OutboxRelay) Reopen(ctx context.Context, eventID string, cause error) error {
	ev, err := r.Store.GetByEventID(ctx, eventID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Error().Err(cause).Str("event_id", eventID).Msg("outbox_relay: failure for unknown event")
		return nil
	}
	if err != nil {
		return err
	}
	return r.fail(ctx, ev, cause)
}

func (r *OutboxRelay) fail(ctx context.Context, ev model.OutboxEvent, cause error) error {
	attempts := ev.Attempts + 1
	terminal := attempts >= r.MaxAttempts
	retryAt := r.Now().Add(RetryBackoff(attempts))

	l := log.Warn()
	if terminal {
		l = log.Error()
	}
	l.Err(cause).Str("event_id", ev.EventID).Str("event_type", ev.EventType).
		Int("attempts", attempts).Bool("terminal", terminal).Msg("outbox_relay: dispatch failed")

	return r.Store.MarkFailed(ctx, ev.ID, cause, retryAt, terminal)
}

// RetryBackoff returns 2^attempts seconds, capped at five minutes.
func RetryBackoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > 16 {
		return maxRetryBackoff
	}
	d := time.Duration(1<<uint(attempts)) * time.Second
	if d > maxRetryBackoff {
		return maxRetryBackoff
	}
	return d
}
