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

type PaymentRepository interface {
	Create(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error
	GetByID(ctx context.Context, paymentID int64) (*domain.Payment, error)

	// GetByOrderID returns (nil, nil) when no payment exists for the order.
	GetByOrderID(ctx context.Context, orderID int64) (*domain.Payment, error)

	UpdateStatus(ctx context.Context, tx pgx.Tx, paymentID int64, status domain.PaymentStatus) error
}

type paymentRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewPaymentRepository(pool *pgxpool.Pool, logger *zap.Logger) PaymentRepository {
	return &paymentRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("repository/payment_repo"),
	}
}

const paymentColumns = "id, order_id, payment_method, amount, status, transaction_id, payment_date, created_at, updated_at"

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(
		&p.ID,
		&p.OrderID,
		&p.PaymentMethod,
		&p.Amount,
		&p.Status,
		&p.TransactionID,
		&p.PaymentDate,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) Create(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", payment.OrderID),
		attribute.Int64("amount", payment.Amount),
	)

	query := `
		INSERT INTO payments (order_id, payment_method, amount, status, transaction_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, payment_date, created_at, updated_at
	`

	if err := tx.QueryRow(
		ctx,
		query,
		payment.OrderID,
		payment.PaymentMethod,
		payment.Amount,
		string(payment.Status),
		payment.TransactionID,
	).Scan(
		&payment.ID,
		&payment.PaymentDate,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	); err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == "23505" {
			return ErrPaymentExists
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to create payment",
			zap.Int64("order_id", payment.OrderID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

func (r *paymentRepo) GetByID(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.GetByID")
	defer span.End()

	span.SetAttributes(attribute.Int64("payment_id", paymentID))

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	payment, err := scanPayment(r.pool.QueryRow(ctx, query, paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}

	return payment, nil
}

func (r *paymentRepo) GetByOrderID(ctx context.Context, orderID int64) (*domain.Payment, error) {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.GetByOrderID")
	defer span.End()

	span.SetAttributes(attribute.Int64("order_id", orderID))

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1`

	payment, err := scanPayment(r.pool.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		span.RecordError(err)
		return nil, fmt.Errorf("failed to query payment by order: %w", err)
	}

	return payment, nil
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, paymentID int64, status domain.PaymentStatus) error {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.UpdateStatus")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("payment_id", paymentID),
		attribute.String("status", string(status)),
	)

	query := `
		UPDATE payments
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	commandTag, err := tx.Exec(ctx, query, string(status), paymentID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to update payment status",
			zap.Int64("payment_id", paymentID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to update payment status: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}

	return nil
}
