package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// validTransitions is the full lifecycle: Delivered and Cancelled are terminal.
var validTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

func (s OrderStatus) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	ID        int64       `db:"id"`
	UserID    int64       `db:"user_id"`
	OrderDate time.Time   `db:"order_date"`
	Status    OrderStatus `db:"status"`
	Items     []OrderItem `db:"items"`

	Subtotal int64 `db:"subtotal"`
	Discount int64 `db:"discount"`
	Tax      int64 `db:"tax"`
	Shipping int64 `db:"shipping"`
	Total    int64 `db:"total"`

	ShippingCity    string `db:"shipping_city"`
	ShippingState   string `db:"shipping_state"`
	ShippingCountry string `db:"shipping_country"`
	ShippingMethod  string `db:"shipping_method"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// OrderItem snapshots the price at order time. Catalog price changes must not
// alter historical orders.
type OrderItem struct {
	ID        int64 `db:"id"`
	OrderID   int64 `db:"order_id"`
	ProductID int64 `db:"product_id"`
	VariantID int64 `db:"variant_id"`
	Quantity  int64 `db:"quantity"`
	Price     int64 `db:"price"`
}

// Cancellable reports whether the order may still be cancelled. Shipped and
// Delivered orders are past the point of no return.
func (o *Order) Cancellable() bool {
	return o.Status != OrderStatusShipped && o.Status != OrderStatusDelivered
}
