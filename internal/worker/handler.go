// Package worker consumes durable notification jobs from Kafka and delivers
// them over email, deduplicating on the outbox event id.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Ruthachere/e-commerce-shop/internal/domain"
	"github.com/Ruthachere/e-commerce-shop/internal/email"
	"github.com/Ruthachere/e-commerce-shop/pkg/mylogger"
)

// envelope is the wire shape of an outbox-published job. EventID is injected
// by the outbox processor at publish time.
type envelope struct {
	Event   string          `json:"event"`
	EventID int64           `json:"event_id"`
	Payload json.RawMessage `json:"payload"`
}

type NotificationHandler struct {
	sender  email.Sender
	deduper Deduper
	logger  *zap.Logger
	tracer  trace.Tracer
}

func NewNotificationHandler(sender email.Sender, deduper Deduper, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		sender:  sender,
		deduper: deduper,
		logger:  logger,
		tracer:  otel.Tracer("worker/notification_handler"),
	}
}

// Handle dispatches one Kafka message to the sender for its job type.
// Unknown job types are acknowledged and dropped.
func (h *NotificationHandler) Handle(ctx context.Context, value []byte) error {
	ctx, span := h.tracer.Start(ctx, "NotificationHandler.Handle")
	defer span.End()

	var env envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return fmt.Errorf("failed to decode job envelope: %w", err)
	}

	span.SetAttributes(
		attribute.String("event", env.Event),
		attribute.Int64("event_id", env.EventID),
	)

	switch env.Event {
	case domain.JobOrderConfirmation:
		return h.handleOrderConfirmation(ctx, env)
	case domain.JobPaymentConfirmation:
		return h.handlePaymentConfirmation(ctx, env)
	default:
		mylogger.Warn(
			ctx,
			h.logger,
			"Dropping job with unknown type",
			zap.String("event", env.Event),
			zap.Int64("event_id", env.EventID),
		)

		return nil
	}
}

func (h *NotificationHandler) handleOrderConfirmation(ctx context.Context, env envelope) error {
	var job domain.OrderConfirmationJob
	if err := json.Unmarshal(env.Payload, &job); err != nil {
		return fmt.Errorf("failed to decode order confirmation job: %w", err)
	}

	return h.deduper.Process(ctx, env.EventID, func() error {
		return h.sender.SendOrderConfirmation(ctx, job.UserEmail, job.OrderID)
	})
}

func (h *NotificationHandler) handlePaymentConfirmation(ctx context.Context, env envelope) error {
	var job domain.PaymentConfirmationJob
	if err := json.Unmarshal(env.Payload, &job); err != nil {
		return fmt.Errorf("failed to decode payment confirmation job: %w", err)
	}

	return h.deduper.Process(ctx, env.EventID, func() error {
		return h.sender.SendPaymentConfirmation(ctx, job.UserEmail, job.TransactionID, job.Amount)
	})
}
