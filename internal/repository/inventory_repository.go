package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Ruthachere/e-commerce-shop/internal/domain"
	"github.com/Ruthachere/e-commerce-shop/pkg/mylogger"
)

type InventoryRepository interface {
	Create(ctx context.Context, variantID, quantity, minStockLevel int64) (*domain.Inventory, error)
	GetByVariantID(ctx context.Context, variantID int64) (*domain.Inventory, error)

	// Reserve and Release run inside the caller's transaction so that a
	// multi-item order commits or rolls back as one unit.
	Reserve(ctx context.Context, tx pgx.Tx, variantID, quantity int64) (*domain.Inventory, error)
	Release(ctx context.Context, tx pgx.Tx, variantID, quantity int64) (*domain.Inventory, error)

	Adjust(ctx context.Context, variantID, delta int64) (*domain.Inventory, error)
	SetLevel(ctx context.Context, variantID, quantity, minStockLevel int64) (*domain.Inventory, error)
}

type inventoryRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewInventoryRepository(pool *pgxpool.Pool, logger *zap.Logger) InventoryRepository {
	return &inventoryRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("repository/inventory_repo"),
	}
}

const inventoryColumns = "id, variant_id, quantity, min_stock_level, created_at, updated_at"

func scanInventory(row pgx.Row) (*domain.Inventory, error) {
	var inv domain.Inventory
	err := row.Scan(
		&inv.ID,
		&inv.VariantID,
		&inv.Quantity,
		&inv.MinStockLevel,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *inventoryRepo) Create(ctx context.Context, variantID, quantity, minStockLevel int64) (*domain.Inventory, error) {
	ctx, span := r.tracer.Start(ctx, "InventoryRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("variant_id", variantID),
		attribute.Int64("quantity", quantity),
	)

	query := `
		INSERT INTO inventory (variant_id, quantity, min_stock_level)
		VALUES ($1, $2, $3)
		RETURNING ` + inventoryColumns

	inv, err := scanInventory(r.pool.QueryRow(ctx, query, variantID, quantity, minStockLevel))
	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == "23505" {
			return nil, ErrInventoryExists
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to create inventory",
			zap.Int64("variant_id", variantID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to create inventory: %w", err)
	}

	return inv, nil
}

func (r *inventoryRepo) GetByVariantID(ctx context.Context, variantID int64) (*domain.Inventory, error) {
	ctx, span := r.tracer.Start(ctx, "InventoryRepository.GetByVariantID")
	defer span.End()

	span.SetAttributes(attribute.Int64("variant_id", variantID))

	query := `SELECT ` + inventoryColumns + ` FROM inventory WHERE variant_id = $1`

	inv, err := scanInventory(r.pool.QueryRow(ctx, query, variantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInventoryNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}

	return inv, nil
}

// Reserve decrements stock only when enough remains. The condition and the
// decrement are one statement, so concurrent reservations against the same
// variant serialize inside the database and can never oversell.
func (r *inventoryRepo) Reserve(ctx context.Context, tx pgx.Tx, variantID, quantity int64) (*domain.Inventory, error) {
	ctx, span := r.tracer.Start(ctx, "InventoryRepository.Reserve")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("variant_id", variantID),
		attribute.Int64("quantity", quantity),
	)

	query := `
		UPDATE inventory
		SET quantity = quantity - $2, updated_at = NOW()
		WHERE variant_id = $1 AND quantity >= $2
		RETURNING ` + inventoryColumns

	inv, err := scanInventory(tx.QueryRow(ctx, query, variantID, quantity))
	if err == nil {
		return inv, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to reserve stock",
			zap.Int64("variant_id", variantID),
			zap.Int64("quantity", quantity),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to reserve stock for variant %d: %w", variantID, err)
	}

	// No row matched: either the variant has no ledger entry or not enough
	// stock remains. Report what is actually available.
	var available int64
	err = tx.QueryRow(ctx, `SELECT quantity FROM inventory WHERE variant_id = $1`, variantID).Scan(&available)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query stock for variant %d: %w", variantID, err)
	}

	mylogger.Warn(
		ctx,
		r.logger,
		"Insufficient stock",
		zap.Int64("variant_id", variantID),
		zap.Int64("requested", quantity),
		zap.Int64("available", available),
	)

	return nil, fmt.Errorf("%w for variant %d: available %d", ErrInsufficientStock, variantID, available)
}

func (r *inventoryRepo) Release(ctx context.Context, tx pgx.Tx, variantID, quantity int64) (*domain.Inventory, error) {
	ctx, span := r.tracer.Start(ctx, "InventoryRepository.Release")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("variant_id", variantID),
		attribute.Int64("quantity", quantity),
	)

	query := `
		UPDATE inventory
		SET quantity = quantity + $2, updated_at = NOW()
		WHERE variant_id = $1
		RETURNING ` + inventoryColumns

	inv, err := scanInventory(tx.QueryRow(ctx, query, variantID, quantity))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInventoryNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("failed to release stock for variant %d: %w", variantID, err)
	}

	return inv, nil
}

func (r *inventoryRepo) Adjust(ctx context.Context, variantID, delta int64) (*domain.Inventory, error) {
	ctx, span := r.tracer.Start(ctx, "InventoryRepository.Adjust")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("variant_id", variantID),
		attribute.Int64("delta", delta),
	)

	query := `
		UPDATE inventory
		SET quantity = quantity + $2, updated_at = NOW()
		WHERE variant_id = $1 AND quantity + $2 >= 0
		RETURNING ` + inventoryColumns

	inv, err := scanInventory(r.pool.QueryRow(ctx, query, variantID, delta))
	if err == nil {
		return inv, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to adjust stock for variant %d: %w", variantID, err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM inventory WHERE variant_id = $1)`, variantID).Scan(&exists); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query inventory for variant %d: %w", variantID, err)
	}
	if !exists {
		return nil, ErrInventoryNotFound
	}

	return nil, ErrInvalidAdjustment
}

func (r *inventoryRepo) SetLevel(ctx context.Context, variantID, quantity, minStockLevel int64) (*domain.Inventory, error) {
	ctx, span := r.tracer.Start(ctx, "InventoryRepository.SetLevel")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("variant_id", variantID),
		attribute.Int64("quantity", quantity),
		attribute.Int64("min_stock_level", minStockLevel),
	)

	query := `
		INSERT INTO inventory (variant_id, quantity, min_stock_level)
		VALUES ($1, $2, $3)
		ON CONFLICT (variant_id)
		DO UPDATE SET quantity = $2, min_stock_level = $3, updated_at = NOW()
		RETURNING ` + inventoryColumns

	inv, err := scanInventory(r.pool.QueryRow(ctx, query, variantID, quantity, minStockLevel))
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to upsert inventory",
			zap.Int64("variant_id", variantID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to upsert inventory: %w", err)
	}

	return inv, nil
}
