package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDeduper struct {
	seen map[int64]bool
}

func (f *fakeDeduper) Process(_ context.Context, eventID int64, action func() error) error {
	if f.seen[eventID] {
		return nil
	}
	if err := action(); err != nil {
		return err
	}
	f.seen[eventID] = true
	return nil
}

type fakeSender struct {
	orderSends   int
	paymentSends int
	fail         error
}

func (f *fakeSender) SendOrderConfirmation(context.Context, string, int64) error {
	f.orderSends++
	return f.fail
}

func (f *fakeSender) SendPaymentConfirmation(context.Context, string, string, int64) error {
	f.paymentSends++
	return f.fail
}

func newTestHandler() (*NotificationHandler, *fakeSender, *fakeDeduper) {
	sender := &fakeSender{}
	deduper := &fakeDeduper{seen: make(map[int64]bool)}
	return NewNotificationHandler(sender, deduper, zap.NewNop()), sender, deduper
}

func TestHandleOrderConfirmation(t *testing.T) {
	h, sender, _ := newTestHandler()

	msg := []byte(`{"event":"SendOrderConfirmation","event_id":1,"payload":{"user_email":"a@b.c","order_id":42}}`)

	require.NoError(t, h.Handle(context.Background(), msg))
	assert.Equal(t, 1, sender.orderSends)
	assert.Equal(t, 0, sender.paymentSends)
}

func TestHandlePaymentConfirmation(t *testing.T) {
	h, sender, _ := newTestHandler()

	msg := []byte(`{"event":"SendPaymentConfirmation","event_id":2,"payload":{"user_email":"a@b.c","transaction_id":"tx-1","amount":5000}}`)

	require.NoError(t, h.Handle(context.Background(), msg))
	assert.Equal(t, 1, sender.paymentSends)
}

func TestHandleDeduplicatesRedelivery(t *testing.T) {
	h, sender, _ := newTestHandler()

	msg := []byte(`{"event":"SendOrderConfirmation","event_id":7,"payload":{"user_email":"a@b.c","order_id":1}}`)

	require.NoError(t, h.Handle(context.Background(), msg))
	require.NoError(t, h.Handle(context.Background(), msg))

	assert.Equal(t, 1, sender.orderSends)
}

func TestHandleUnknownJobAcked(t *testing.T) {
	h, sender, _ := newTestHandler()

	msg := []byte(`{"event":"SendSomethingElse","event_id":3,"payload":{}}`)

	require.NoError(t, h.Handle(context.Background(), msg))
	assert.Equal(t, 0, sender.orderSends)
	assert.Equal(t, 0, sender.paymentSends)
}

func TestHandleSenderFailurePropagates(t *testing.T) {
	h, sender, _ := newTestHandler()
	sender.fail = errors.New("smtp down")

	msg := []byte(`{"event":"SendOrderConfirmation","event_id":4,"payload":{"user_email":"a@b.c","order_id":1}}`)

	assert.Error(t, h.Handle(context.Background(), msg))
}

func TestHandleBadEnvelope(t *testing.T) {
	h, _, _ := newTestHandler()

	assert.Error(t, h.Handle(context.Background(), []byte(`not json`)))
}
