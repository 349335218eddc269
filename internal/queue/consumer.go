package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// CommissionHandler processes one decoded commission request.
type CommissionHandler func(ctx context.Context, ev CommissionRequestedEvent) error

// FailureRecorder hands a delivery that failed twice back to the outbox row
// identified by eventID, which then owns the retry.
type FailureRecorder func(ctx context.Context, eventID string, cause error) error

// redeliveryPause throttles requeues while the failure cannot be recorded.
var redeliveryPause = 2 * time.Second

// StartCommissionConsumer connects to RabbitMQ, declares the durable queue
// and hands every delivery to handle.  It reconnects with exponential
// backoff until ctx is cancelled.  See settle for how failures are handled.
func StartCommissionConsumer(ctx context.Context, url, queueName string, handle CommissionHandler, record FailureRecorder) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("commission-consumer: failed to dial broker")
			if !sleepCtx(ctx, backoff) {
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, queueName, handle, record)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Msg("commission-consumer: consume loop ended; reconnecting")
		if !sleepCtx(ctx, 2*time.Second) {
			return
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queueName string, handle CommissionHandler, record FailureRecorder) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn().Err(err).Msg("commission-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			settle(ctx, d, handle, record)
		}
	}
}

// settle processes one delivery and acknowledges it.  A first failure is
// requeued.  A second failure is written back to the outbox and acked; if
// that write fails too, the message is requeued after a pause.
func settle(ctx context.Context, d amqp.Delivery, handle CommissionHandler, record FailureRecorder) {
	err := HandleDelivery(ctx, d.Body, handle)
	if err == nil {
		_ = d.Ack(false)
		return
	}
	if !d.Redelivered {
		log.Warn().Err(err).Str("message_id", d.MessageId).Msg("commission-consumer: handle message failed, requeueing")
		_ = d.Nack(false, true)
		return
	}
	if d.MessageId == "" || record == nil {
		log.Error().Err(err).Msg("commission-consumer: dropping untraceable message")
		_ = d.Nack(false, false)
		return
	}
	if rerr := record(ctx, d.MessageId, err); rerr != nil {
		log.Error().Err(rerr).AnErr("cause", err).Str("message_id", d.MessageId).
			Msg("commission-consumer: record failure failed, requeueing")
		sleepCtx(ctx, redeliveryPause)
		_ = d.Nack(false, true)
		return
	}
	log.Error().Err(err).Str("message_id", d.MessageId).Msg("commission-consumer: failure handed back to outbox")
	_ = d.Ack(false)
}

// HandleDelivery decodes body and passes it to handle.
func HandleDelivery(ctx context.Context, body []byte, handle CommissionHandler) error {
	var ev CommissionRequestedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.PurchaseID == 0 || ev.BuyerIdentityID == 0 {
		return errors.New("incomplete commission event")
	}
	return handle(ctx, ev)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
