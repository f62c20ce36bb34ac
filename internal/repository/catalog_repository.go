package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ItemPricing is the catalog snapshot a line item is priced from.
type ItemPricing struct {
	ProductID int64 `json:"product_id"`
	Price     int64 `json:"price"`
}

type CatalogRepository interface {
	VariantPricing(ctx context.Context, variantID int64) (*ItemPricing, error)
	ProductPricing(ctx context.Context, productID int64) (*ItemPricing, error)
}

type catalogRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewCatalogRepository(pool *pgxpool.Pool, logger *zap.Logger) CatalogRepository {
	return &catalogRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("repository/catalog_repo"),
	}
}

func (r *catalogRepo) VariantPricing(ctx context.Context, variantID int64) (*ItemPricing, error) {
	ctx, span := r.tracer.Start(ctx, "CatalogRepository.VariantPricing")
	defer span.End()

	span.SetAttributes(attribute.Int64("variant_id", variantID))

	query := `SELECT product_id, price FROM variants WHERE id = $1`

	var pricing ItemPricing
	if err := r.pool.QueryRow(ctx, query, variantID).Scan(&pricing.ProductID, &pricing.Price); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVariantNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("failed to query variant %d: %w", variantID, err)
	}

	return &pricing, nil
}

func (r *catalogRepo) ProductPricing(ctx context.Context, productID int64) (*ItemPricing, error) {
	ctx, span := r.tracer.Start(ctx, "CatalogRepository.ProductPricing")
	defer span.End()

	span.SetAttributes(attribute.Int64("product_id", productID))

	query := `SELECT id, price FROM products WHERE id = $1`

	var pricing ItemPricing
	if err := r.pool.QueryRow(ctx, query, productID).Scan(&pricing.ProductID, &pricing.Price); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("failed to query product %d: %w", productID, err)
	}

	return &pricing, nil
}
