package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleDelivery(t *testing.T) {
	body, err := json.Marshal(CommissionRequestedEvent{
		EventID:         "e-1",
		PurchaseID:      21,
		BuyerIdentityID: 30,
		BuyerKind:       "AFFILIATE",
		Cashback:        decimal.RequireFromString("5.5"),
	})
	require.NoError(t, err)

	var got CommissionRequestedEvent
	err = HandleDelivery(context.Background(), body, func(_ context.Context, ev CommissionRequestedEvent) error {
		got = ev
		return nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 21, got.PurchaseID)
	assert.True(t, decimal.RequireFromString("5.5").Equal(got.Cashback))
}

func TestHandleDeliveryRejectsBadPayloads(t *testing.T) {
	called := false
	handle := func(context.Context, CommissionRequestedEvent) error { called = true; return nil }

	assert.Error(t, HandleDelivery(context.Background(), []byte("not json"), handle))
	assert.Error(t, HandleDelivery(context.Background(), []byte(`{"event_id":"e-1"}`), handle))
	assert.False(t, called)
}

func TestSleepCtx(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepCtx(ctx, time.Hour))
	assert.True(t, sleepCtx(context.Background(), time.Millisecond))
}

type ackRecorder struct {
	acked, nacked, requeued bool
}

func (a *ackRecorder) Ack(uint64, bool) error {
	a.acked = true
	return nil
}

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}

func (a *ackRecorder) Reject(_ uint64, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}

func commissionDelivery(t *testing.T, redelivered bool) (amqp.Delivery, *ackRecorder) {
	t.Helper()
	body, err := json.Marshal(CommissionRequestedEvent{EventID: "e-9", PurchaseID: 9, BuyerIdentityID: 3})
	require.NoError(t, err)
	ack := &ackRecorder{}
	return amqp.Delivery{Acknowledger: ack, Body: body, MessageId: "e-9", Redelivered: redelivered}, ack
}

type failureLog struct {
	ids []string
	err error
}

func (f *failureLog) record(_ context.Context, id string, _ error) error {
	f.ids = append(f.ids, id)
	return f.err
}

var errHandler = errors.New("db unavailable")

func failingHandler(context.Context, CommissionRequestedEvent) error { return errHandler }

func TestSettleAcksSuccess(t *testing.T) {
	d, ack := commissionDelivery(t, false)
	failures := &failureLog{}
	settle(context.Background(), d, func(context.Context, CommissionRequestedEvent) error { return nil }, failures.record)

	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
	assert.Empty(t, failures.ids)
}

func TestSettleRequeuesFirstFailure(t *testing.T) {
	d, ack := commissionDelivery(t, false)
	failures := &failureLog{}
	settle(context.Background(), d, failingHandler, failures.record)

	assert.True(t, ack.nacked)
	assert.True(t, ack.requeued)
	assert.Empty(t, failures.ids)
}

func TestSettleHandsSecondFailureToOutbox(t *testing.T) {
	d, ack := commissionDelivery(t, true)
	failures := &failureLog{}
	settle(context.Background(), d, failingHandler, failures.record)

	assert.Equal(t, []string{"e-9"}, failures.ids)
	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
}

func TestSettleKeepsMessageWhenRecordFails(t *testing.T) {
	d, ack := commissionDelivery(t, true)
	failures := &failureLog{err: errors.New("db unavailable")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	settle(ctx, d, failingHandler, failures.record)

	assert.Len(t, failures.ids, 1)
	assert.False(t, ack.acked)
	assert.True(t, ack.nacked)
	assert.True(t, ack.requeued)
}

func TestSettleDropsUntraceableMessage(t *testing.T) {
	d, ack := commissionDelivery(t, true)
	d.MessageId = ""
	failures := &failureLog{}
	settle(context.Background(), d, failingHandler, failures.record)

	assert.Empty(t, failures.ids)
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
}
