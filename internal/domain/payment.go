package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusCompleted PaymentStatus = "Completed"
	PaymentStatusFailed    PaymentStatus = "Failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	}
	return false
}

// orderStatusForPayment maps a payment outcome to the order status it drives.
// Completed leaves the order Pending: paid and ready for fulfillment.
var orderStatusForPayment = map[PaymentStatus]OrderStatus{
	PaymentStatusCompleted: OrderStatusPending,
	PaymentStatusFailed:    OrderStatusCancelled,
	PaymentStatusPending:   OrderStatusPending,
}

func OrderStatusForPayment(s PaymentStatus) OrderStatus {
	return orderStatusForPayment[s]
}

type Payment struct {
	ID            int64         `db:"id"`
	OrderID       int64         `db:"order_id"`
	PaymentMethod string        `db:"payment_method"`
	Amount        int64         `db:"amount"`
	Status        PaymentStatus `db:"status"`
	TransactionID string        `db:"transaction_id"`
	PaymentDate   time.Time     `db:"payment_date"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
