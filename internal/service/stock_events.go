package service

import (
	"context"

	"github.com/Ruthachere/e-commerce-shop/internal/domain"
	"github.com/Ruthachere/e-commerce-shop/internal/realtime"
)

// emitStockEvents broadcasts the state of a ledger row after a committed
// mutation: the new quantity always, plus low-stock and out-of-stock warnings
// when the thresholds are crossed. Best-effort by construction.
func emitStockEvents(ctx context.Context, broadcaster realtime.Broadcaster, inv *domain.Inventory) {
	broadcaster.Publish(ctx, domain.EventInventoryUpdated, domain.InventoryUpdatedEvent{
		VariantID: inv.VariantID,
		Quantity:  inv.Quantity,
		UpdatedAt: inv.UpdatedAt,
	})

	if inv.LowStock() {
		broadcaster.Publish(ctx, domain.EventLowStockWarning, domain.LowStockWarningEvent{
			VariantID: inv.VariantID,
			Remaining: inv.Quantity,
		})
	}

	if inv.OutOfStock() {
		broadcaster.Publish(ctx, domain.EventOutOfStock, domain.OutOfStockEvent{
			VariantID: inv.VariantID,
		})
	}
}
