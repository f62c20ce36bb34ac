package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusShipped, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusShipped, OrderStatusPending, false},
		{OrderStatusDelivered, OrderStatusPending, false},
		{OrderStatusDelivered, OrderStatusShipped, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusShipped, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestOrderStatusValid(t *testing.T) {
	assert.True(t, OrderStatusPending.Valid())
	assert.True(t, OrderStatusShipped.Valid())
	assert.True(t, OrderStatusDelivered.Valid())
	assert.True(t, OrderStatusCancelled.Valid())
	assert.False(t, OrderStatus("Refunded").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestOrderCancellable(t *testing.T) {
	assert.True(t, (&Order{Status: OrderStatusPending}).Cancellable())
	assert.False(t, (&Order{Status: OrderStatusShipped}).Cancellable())
	assert.False(t, (&Order{Status: OrderStatusDelivered}).Cancellable())
}

func TestOrderStatusForPayment(t *testing.T) {
	assert.Equal(t, OrderStatusPending, OrderStatusForPayment(PaymentStatusCompleted))
	assert.Equal(t, OrderStatusCancelled, OrderStatusForPayment(PaymentStatusFailed))
	assert.Equal(t, OrderStatusPending, OrderStatusForPayment(PaymentStatusPending))
}

func TestInventoryThresholds(t *testing.T) {
	inv := &Inventory{Quantity: 3, MinStockLevel: 5}
	assert.True(t, inv.LowStock())
	assert.False(t, inv.OutOfStock())

	inv.Quantity = 0
	assert.True(t, inv.OutOfStock())

	inv.Quantity = 6
	assert.False(t, inv.LowStock())
	assert.False(t, inv.OutOfStock())
}
