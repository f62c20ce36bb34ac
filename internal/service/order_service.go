package service

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

	"github.com/Ruthachere/e-commerce-shop/internal/domain"
	"github.com/Ruthachere/e-commerce-shop/internal/outbox"
	"github.com/Ruthachere/e-commerce-shop/internal/realtime"
	"github.com/Ruthachere/e-commerce-shop/internal/repository"
	"github.com/Ruthachere/e-commerce-shop/pkg/mylogger"
)

// PlaceOrderInput carries the validated request plus the pricing snapshot
// produced by the pricing calculator. The pipeline trusts the snapshot's
// per-item prices but re-checks that its totals add up.
type PlaceOrderInput struct {
	UserID int64

	ShippingCity    string
	ShippingState   string
	ShippingCountry string
	ShippingMethod  string

	Items []OrderItemInput

	Subtotal int64
	Discount int64
	Tax      int64
	Shipping int64
	Total    int64
}

type OrderItemInput struct {
	VariantID int64
	ProductID int64
	Quantity  int64
	Price     int64
}

type OrderService interface {
	PlaceOrder(ctx context.Context, in PlaceOrderInput) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status domain.OrderStatus) (*domain.Order, error)
	Cancel(ctx context.Context, orderID int64) error
	GetByID(ctx context.Context, orderID int64) (*domain.Order, error)
}

type orderService struct {
	pool          *pgxpool.Pool
	orderRepo     repository.OrderRepository
	inventoryRepo repository.InventoryRepository
	userRepo      repository.UserRepository
	outboxRepo    outbox.Repository
	broadcaster   realtime.Broadcaster
	logger        *zap.Logger
	tracer        trace.Tracer
}

func NewOrderService(
	pool *pgxpool.Pool,
	orderRepo repository.OrderRepository,
	inventoryRepo repository.InventoryRepository,
	userRepo repository.UserRepository,
	outboxRepo outbox.Repository,
	broadcaster realtime.Broadcaster,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		pool:          pool,
		orderRepo:     orderRepo,
		inventoryRepo: inventoryRepo,
		userRepo:      userRepo,
		outboxRepo:    outboxRepo,
		broadcaster:   broadcaster,
		logger:        logger,
		tracer:        otel.Tracer("service/order_service"),
	}
}

// PlaceOrder reserves stock for every line item, creates the order with its
// items and queues the confirmation job, all in one transaction. A shortfall
// on any item rolls back every earlier reservation.
func (s *orderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.PlaceOrder")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", in.UserID),
		attribute.Int("items_count", len(in.Items)),
	)

	if err := validateSnapshot(in); err != nil {
		return nil, err
	}

	// Contact lookup happens before any write so a user without an email
	// cannot end up with a committed order and a failed confirmation.
	email, err := s.userRepo.Email(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrMissingContactInfo
		}
		return nil, err
	}
	if email == "" {
		return nil, ErrMissingContactInfo
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)

		if err := tx.Rollback(cleanupCtx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(
				cleanupCtx,
				s.logger,
				"Error rolling back transaction",
				zap.Error(err),
			)
		}
	}()

	reserved := make([]*domain.Inventory, 0, len(in.Items))
	for _, item := range in.Items {
		inv, err := s.inventoryRepo.Reserve(ctx, tx, item.VariantID, item.Quantity)
		if err != nil {
			mylogger.Warn(
				ctx,
				s.logger,
				"Reservation failed, aborting order",
				zap.Int64("user_id", in.UserID),
				zap.Int64("variant_id", item.VariantID),
				zap.Error(err),
			)

			return nil, err
		}

		reserved = append(reserved, inv)
	}

	order := &domain.Order{
		UserID:          in.UserID,
		Status:          domain.OrderStatusPending,
		Subtotal:        in.Subtotal,
		Discount:        in.Discount,
		Tax:             in.Tax,
		Shipping:        in.Shipping,
		Total:           in.Total,
		ShippingCity:    in.ShippingCity,
		ShippingState:   in.ShippingState,
		ShippingCountry: in.ShippingCountry,
		ShippingMethod:  in.ShippingMethod,
	}
	for _, item := range in.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	if err := s.orderRepo.Create(ctx, tx, order); err != nil {
		return nil, err
	}

	job := domain.OrderConfirmationJob{
		UserEmail: email,
		OrderID:   order.ID,
	}
	if err := saveOutboxJob(ctx, tx, s.outboxRepo, domain.TopicOrderJobs, domain.JobOrderConfirmation, "Order", order.ID, job); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Failed to commit transaction", zap.Error(err))
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", order.UserID),
		zap.Int64("total", order.Total),
		zap.Int("items_count", len(order.Items)),
	)

	s.broadcaster.Publish(ctx, domain.EventOrderCreated, domain.OrderEvent{
		OrderID: order.ID,
		UserID:  order.UserID,
		Status:  order.Status,
		Total:   order.Total,
	})
	for _, inv := range reserved {
		emitStockEvents(ctx, s.broadcaster, inv)
	}

	return order, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, orderID int64, status domain.OrderStatus) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.UpdateStatus")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
		attribute.String("status", string(status)),
	)

	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, order.Status, status)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)

		if err := tx.Rollback(cleanupCtx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(cleanupCtx, s.logger, "Error rolling back transaction", zap.Error(err))
		}
	}()

	if err := s.orderRepo.ChangeStatus(ctx, tx, orderID, status); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Order status updated",
		zap.Int64("order_id", orderID),
		zap.String("from", string(order.Status)),
		zap.String("to", string(status)),
	)

	order.Status = status

	s.broadcaster.Publish(ctx, domain.EventOrderUpdated, domain.OrderEvent{
		OrderID: order.ID,
		UserID:  order.UserID,
		Status:  order.Status,
		Total:   order.Total,
	})

	return order, nil
}

// Cancel deletes the order together with its items and payment, and returns
// the reserved stock to the ledger in the same transaction.
func (s *orderService) Cancel(ctx context.Context, orderID int64) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.Cancel")
	defer span.End()

	span.SetAttributes(attribute.Int64("order_id", orderID))

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if !order.Cancellable() {
		return fmt.Errorf("%w: order %d is %s", ErrIllegalState, orderID, order.Status)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)

		if err := tx.Rollback(cleanupCtx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(cleanupCtx, s.logger, "Error rolling back transaction", zap.Error(err))
		}
	}()

	released := make([]*domain.Inventory, 0, len(order.Items))
	for _, item := range order.Items {
		inv, err := s.inventoryRepo.Release(ctx, tx, item.VariantID, item.Quantity)
		if err != nil {
			// A variant deleted since the order was placed has no ledger
			// row left to restore.
			if errors.Is(err, repository.ErrInventoryNotFound) {
				mylogger.Warn(
					ctx,
					s.logger,
					"No inventory to release",
					zap.Int64("variant_id", item.VariantID),
				)
				continue
			}

			return err
		}

		released = append(released, inv)
	}

	if err := s.orderRepo.Delete(ctx, tx, orderID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Order cancelled",
		zap.Int64("order_id", orderID),
	)

	s.broadcaster.Publish(ctx, domain.EventOrderCancelled, domain.OrderEvent{
		OrderID: order.ID,
		UserID:  order.UserID,
		Status:  domain.OrderStatusCancelled,
		Total:   order.Total,
	})
	for _, inv := range released {
		emitStockEvents(ctx, s.broadcaster, inv)
	}

	return nil
}

func (s *orderService) GetByID(ctx context.Context, orderID int64) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetByID")
	defer span.End()

	span.SetAttributes(attribute.Int64("order_id", orderID))

	return s.orderRepo.GetByID(ctx, orderID)
}

// validateSnapshot checks the creation-time invariant: line item subtotals
// plus discount, tax and shipping must equal the snapshot total.
func validateSnapshot(in PlaceOrderInput) error {
	var itemsSubtotal int64
	for _, item := range in.Items {
		itemsSubtotal += item.Price * item.Quantity
	}

	if itemsSubtotal != in.Subtotal {
		return fmt.Errorf("%w: items subtotal %d != %d", ErrInvalidSnapshot, itemsSubtotal, in.Subtotal)
	}
	if in.Subtotal-in.Discount+in.Tax+in.Shipping != in.Total {
		return fmt.Errorf("%w: total %d", ErrInvalidSnapshot, in.Total)
	}

	return nil
}
