package domain

import "time"

const DefaultMinStockLevel = 5

// Inventory is the per-variant stock ledger row. Exactly one record exists per
// variant and quantity never goes negative.
type Inventory struct {
	ID            int64     `db:"id"`
	VariantID     int64     `db:"variant_id"`
	Quantity      int64     `db:"quantity"`
	MinStockLevel int64     `db:"min_stock_level"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (i *Inventory) LowStock() bool {
	return i.Quantity <= i.MinStockLevel
}

func (i *Inventory) OutOfStock() bool {
	return i.Quantity == 0
}
