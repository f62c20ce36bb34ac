package domain

import "time"

// Realtime broadcast event names, published best-effort after a commit.
const (
	EventOrderCreated     = "orderCreated"
	EventOrderUpdated     = "orderUpdated"
	EventOrderCancelled   = "orderCancelled"
	EventInventoryUpdated = "inventoryUpdated"
	EventLowStockWarning  = "lowStockWarning"
	EventOutOfStock       = "outOfStock"
	EventPaymentUpdated   = "paymentUpdated"
)

type InventoryUpdatedEvent struct {
	VariantID int64     `json:"variant_id"`
	Quantity  int64     `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LowStockWarningEvent struct {
	VariantID int64 `json:"variant_id"`
	Remaining int64 `json:"remaining"`
}

type OutOfStockEvent struct {
	VariantID int64 `json:"variant_id"`
}

type OrderEvent struct {
	OrderID int64       `json:"order_id"`
	UserID  int64       `json:"user_id"`
	Status  OrderStatus `json:"status"`
	Total   int64       `json:"total"`
}

type PaymentUpdatedEvent struct {
	PaymentID int64         `json:"payment_id"`
	OrderID   int64         `json:"order_id"`
	Status    PaymentStatus `json:"status"`
}

// Durable notification jobs, written to the outbox inside the triggering
// transaction and delivered at least once through Kafka.
const (
	JobOrderConfirmation   = "SendOrderConfirmation"
	JobPaymentConfirmation = "SendPaymentConfirmation"
)

const (
	TopicOrderJobs   = "order_jobs"
	TopicPaymentJobs = "payment_jobs"
)

type OrderConfirmationJob struct {
	UserEmail string `json:"user_email"`
	OrderID   int64  `json:"order_id"`
}

type PaymentConfirmationJob struct {
	UserEmail     string `json:"user_email"`
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
}
