package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Ruthachere/e-commerce-shop/internal/domain"
	"github.com/Ruthachere/e-commerce-shop/internal/realtime"
	"github.com/Ruthachere/e-commerce-shop/internal/repository"
	"github.com/Ruthachere/e-commerce-shop/pkg/mylogger"
)

type InventoryService interface {
	Create(ctx context.Context, variantID, quantity, minStockLevel int64) (*domain.Inventory, error)
	Get(ctx context.Context, variantID int64) (*domain.Inventory, error)
	SetLevel(ctx context.Context, variantID, quantity, minStockLevel int64) (*domain.Inventory, error)
	Adjust(ctx context.Context, variantID, delta int64) (*domain.Inventory, error)
}

type inventoryService struct {
	inventoryRepo repository.InventoryRepository
	broadcaster   realtime.Broadcaster
	logger        *zap.Logger
	tracer        trace.Tracer
}

func NewInventoryService(
	inventoryRepo repository.InventoryRepository,
	broadcaster realtime.Broadcaster,
	logger *zap.Logger,
) InventoryService {
	return &inventoryService{
		inventoryRepo: inventoryRepo,
		broadcaster:   broadcaster,
		logger:        logger,
		tracer:        otel.Tracer("service/inventory_service"),
	}
}

func (s *inventoryService) Create(ctx context.Context, variantID, quantity, minStockLevel int64) (*domain.Inventory, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.Create")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("variant_id", variantID),
		attribute.Int64("quantity", quantity),
	)

	inv, err := s.inventoryRepo.Create(ctx, variantID, quantity, minStockLevel)
	if err != nil {
		return nil, err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Inventory created",
		zap.Int64("variant_id", variantID),
		zap.Int64("quantity", quantity),
		zap.Int64("min_stock_level", minStockLevel),
	)

	emitStockEvents(ctx, s.broadcaster, inv)

	return inv, nil
}

func (s *inventoryService) Get(ctx context.Context, variantID int64) (*domain.Inventory, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.Get")
	defer span.End()

	span.SetAttributes(attribute.Int64("variant_id", variantID))

	return s.inventoryRepo.GetByVariantID(ctx, variantID)
}

func (s *inventoryService) SetLevel(ctx context.Context, variantID, quantity, minStockLevel int64) (*domain.Inventory, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.SetLevel")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("variant_id", variantID),
		attribute.Int64("quantity", quantity),
	)

	inv, err := s.inventoryRepo.SetLevel(ctx, variantID, quantity, minStockLevel)
	if err != nil {
		return nil, err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Inventory level set",
		zap.Int64("variant_id", variantID),
		zap.Int64("quantity", inv.Quantity),
		zap.Bool("low_stock", inv.LowStock()),
	)

	emitStockEvents(ctx, s.broadcaster, inv)

	return inv, nil
}

func (s *inventoryService) Adjust(ctx context.Context, variantID, delta int64) (*domain.Inventory, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.Adjust")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("variant_id", variantID),
		attribute.Int64("delta", delta),
	)

	inv, err := s.inventoryRepo.Adjust(ctx, variantID, delta)
	if err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Inventory adjustment rejected",
			zap.Int64("variant_id", variantID),
			zap.Int64("delta", delta),
			zap.Error(err),
		)

		return nil, err
	}

	emitStockEvents(ctx, s.broadcaster, inv)

	return inv, nil
}
