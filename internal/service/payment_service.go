package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
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

type CreatePaymentInput struct {
	OrderID       int64
	PaymentMethod string
	Amount        int64
	TransactionID string
}

// GatewayEvent is the decoded body of a payment gateway webhook.
type GatewayEvent struct {
	OrderID       int64                `json:"order_id"`
	TransactionID string               `json:"transaction_id"`
	Amount        int64                `json:"amount"`
	PaymentMethod string               `json:"payment_method"`
	Status        domain.PaymentStatus `json:"status"`
}

type PaymentService interface {
	CreatePayment(ctx context.Context, in CreatePaymentInput) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, paymentID int64, status domain.PaymentStatus) (*domain.Payment, error)
	GetByID(ctx context.Context, paymentID int64) (*domain.Payment, error)
	GetByOrderID(ctx context.Context, orderID int64) (*domain.Payment, error)

	// HandleGatewayEvent verifies the webhook signature against the raw body
	// before any parsing or side effect takes place.
	HandleGatewayEvent(ctx context.Context, body []byte, signature string) (*domain.Payment, error)
}

type paymentService struct {
	pool          *pgxpool.Pool
	paymentRepo   repository.PaymentRepository
	orderRepo     repository.OrderRepository
	userRepo      repository.UserRepository
	outboxRepo    outbox.Repository
	broadcaster   realtime.Broadcaster
	webhookSecret string
	logger        *zap.Logger
	tracer        trace.Tracer
}

func NewPaymentService(
	pool *pgxpool.Pool,
	paymentRepo repository.PaymentRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	outboxRepo outbox.Repository,
	broadcaster realtime.Broadcaster,
	webhookSecret string,
	logger *zap.Logger,
) PaymentService {
	return &paymentService{
		pool:          pool,
		paymentRepo:   paymentRepo,
		orderRepo:     orderRepo,
		userRepo:      userRepo,
		outboxRepo:    outboxRepo,
		broadcaster:   broadcaster,
		webhookSecret: webhookSecret,
		logger:        logger,
		tracer:        otel.Tracer("service/payment_service"),
	}
}

// CreatePayment records a manual payment for an order. At most one payment
// exists per order, later attempts fail with ErrPaymentExists.
func (s *paymentService) CreatePayment(ctx context.Context, in CreatePaymentInput) (*domain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.CreatePayment")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", in.OrderID),
		attribute.Int64("amount", in.Amount),
	)

	order, err := s.orderRepo.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}

	if in.TransactionID == "" {
		in.TransactionID = uuid.NewString()
	}

	payment := &domain.Payment{
		OrderID:       order.ID,
		PaymentMethod: in.PaymentMethod,
		Amount:        in.Amount,
		Status:        domain.PaymentStatusPending,
		TransactionID: in.TransactionID,
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

	if err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Payment created",
		zap.Int64("payment_id", payment.ID),
		zap.Int64("order_id", payment.OrderID),
		zap.Int64("amount", payment.Amount),
	)

	s.broadcastPayment(ctx, payment)

	return payment, nil
}

// UpdateStatus moves a payment to a new status and drives the owning order
// through the status the payment outcome maps to, in one transaction.
func (s *paymentService) UpdateStatus(ctx context.Context, paymentID int64, status domain.PaymentStatus) (*domain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.UpdateStatus")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("payment_id", paymentID),
		attribute.String("status", string(status)),
	)

	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, payment.OrderID)
	if err != nil {
		return nil, err
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

	if err := s.paymentRepo.UpdateStatus(ctx, tx, paymentID, status); err != nil {
		return nil, err
	}

	if err := s.applyOrderMapping(ctx, tx, order, status); err != nil {
		return nil, err
	}

	if status == domain.PaymentStatusCompleted {
		if err := s.saveConfirmationJob(ctx, tx, order.UserID, payment); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Failed to commit transaction", zap.Error(err))
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	payment.Status = status

	mylogger.Info(
		ctx,
		s.logger,
		"Payment status updated",
		zap.Int64("payment_id", payment.ID),
		zap.Int64("order_id", payment.OrderID),
		zap.String("status", string(status)),
	)

	s.broadcastPayment(ctx, payment)

	return payment, nil
}

func (s *paymentService) GetByID(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.GetByID")
	defer span.End()

	span.SetAttributes(attribute.Int64("payment_id", paymentID))

	return s.paymentRepo.GetByID(ctx, paymentID)
}

func (s *paymentService) GetByOrderID(ctx context.Context, orderID int64) (*domain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.GetByOrderID")
	defer span.End()

	span.SetAttributes(attribute.Int64("order_id", orderID))

	payment, err := s.paymentRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, repository.ErrPaymentNotFound
	}

	return payment, nil
}

func (s *paymentService) HandleGatewayEvent(ctx context.Context, body []byte, signature string) (*domain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.HandleGatewayEvent")
	defer span.End()

	if !verifySignature(s.webhookSecret, body, signature) {
		mylogger.Warn(ctx, s.logger, "Rejected gateway event with bad signature")
		return nil, ErrInvalidSignature
	}

	var event GatewayEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to decode gateway event: %w", err)
	}

	span.SetAttributes(
		attribute.Int64("order_id", event.OrderID),
		attribute.String("status", string(event.Status)),
	)

	if !event.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, event.Status)
	}

	existing, err := s.paymentRepo.GetByOrderID(ctx, event.OrderID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		// A payment that already reached Completed is terminal. Replayed
		// deliveries acknowledge without touching anything.
		if existing.Status == domain.PaymentStatusCompleted {
			mylogger.Info(
				ctx,
				s.logger,
				"Gateway event replay for completed payment, skipping",
				zap.Int64("payment_id", existing.ID),
				zap.Int64("order_id", event.OrderID),
			)

			return existing, nil
		}

		return s.UpdateStatus(ctx, existing.ID, event.Status)
	}

	payment, err := s.createFromGateway(ctx, event)
	if err != nil {
		// A concurrent delivery won the insert race. The order already has
		// its payment, treat this delivery as a replay.
		if errors.Is(err, repository.ErrPaymentExists) {
			return s.paymentRepo.GetByOrderID(ctx, event.OrderID)
		}

		return nil, err
	}

	s.broadcastPayment(ctx, payment)

	return payment, nil
}

func (s *paymentService) createFromGateway(ctx context.Context, event GatewayEvent) (*domain.Payment, error) {
	order, err := s.orderRepo.GetByID(ctx, event.OrderID)
	if err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		OrderID:       order.ID,
		PaymentMethod: event.PaymentMethod,
		Amount:        event.Amount,
		Status:        event.Status,
		TransactionID: event.TransactionID,
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

	if err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
		return nil, err
	}

	if err := s.applyOrderMapping(ctx, tx, order, payment.Status); err != nil {
		return nil, err
	}

	if payment.Status == domain.PaymentStatusCompleted {
		if err := s.saveConfirmationJob(ctx, tx, order.UserID, payment); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Failed to commit transaction", zap.Error(err))
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Payment recorded from gateway event",
		zap.Int64("payment_id", payment.ID),
		zap.Int64("order_id", payment.OrderID),
		zap.String("status", string(payment.Status)),
	)

	return payment, nil
}

// applyOrderMapping drives the order to the status the payment outcome maps
// to. Mapping onto the order's current status is a legal no-op.
func (s *paymentService) applyOrderMapping(ctx context.Context, tx pgx.Tx, order *domain.Order, status domain.PaymentStatus) error {
	target := domain.OrderStatusForPayment(status)

	if order.Status == target {
		return nil
	}

	if !order.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, order.Status, target)
	}

	if err := s.orderRepo.ChangeStatus(ctx, tx, order.ID, target); err != nil {
		return err
	}

	order.Status = target

	return nil
}

func (s *paymentService) saveConfirmationJob(ctx context.Context, tx pgx.Tx, userID int64, payment *domain.Payment) error {
	email, err := s.userRepo.Email(ctx, userID)
	if err != nil {
		return err
	}

	job := domain.PaymentConfirmationJob{
		UserEmail:     email,
		TransactionID: payment.TransactionID,
		Amount:        payment.Amount,
	}

	return saveOutboxJob(ctx, tx, s.outboxRepo, domain.TopicPaymentJobs, domain.JobPaymentConfirmation, "Payment", payment.OrderID, job)
}

func (s *paymentService) broadcastPayment(ctx context.Context, payment *domain.Payment) {
	s.broadcaster.Publish(ctx, domain.EventPaymentUpdated, domain.PaymentUpdatedEvent{
		PaymentID: payment.ID,
		OrderID:   payment.OrderID,
		Status:    payment.Status,
	})
}
