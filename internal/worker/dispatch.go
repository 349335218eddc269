package worker

import (
	"context"
	"fmt"

	"github.com/iliyamo/cashmais/internal/model"
	"github.com/iliyamo/cashmais/internal/queue"
)

// Publisher sends a raw payload to the broker.
type Publisher interface {
	Publish(ctx context.Context, eventType, eventID string, body []byte) error
}

// QueueDispatcher forwards outbox events to RabbitMQ.
type QueueDispatcher struct{ Publisher Publisher }

func (d QueueDispatcher) Dispatch(ctx context.Context, ev model.OutboxEvent) error {
	return d.Publisher.Publish(ctx, ev.EventType, ev.EventID, ev.Payload)
}

// InlineDispatcher hands commission events straight to a handler in this
// process, skipping the broker.
type InlineDispatcher struct{ Handle queue.CommissionHandler }

func (d InlineDispatcher) Dispatch(ctx context.Context, ev model.OutboxEvent) error {
	if ev.EventType != queue.EventCommissionRequested {
		return fmt.Errorf("unsupported event type %q", ev.EventType)
	}
	return queue.HandleDelivery(ctx, ev.Payload, d.Handle)
}
