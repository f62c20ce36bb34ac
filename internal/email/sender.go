package email

import (
	"context"
	"fmt"
	"net/smtp"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Ruthachere/e-commerce-shop/pkg/mylogger"
)

type Sender interface {
	SendOrderConfirmation(ctx context.Context, to string, orderID int64) error
	SendPaymentConfirmation(ctx context.Context, to string, transactionID string, amount int64) error
}

type Config struct {
	From     string
	Password string
	Host     string
	Port     string
}

type smtpSender struct {
	cfg    Config
	logger *zap.Logger
	tracer trace.Tracer
}

func NewSMTPSender(cfg Config, logger *zap.Logger) Sender {
	return &smtpSender{
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer("email/smtp"),
	}
}

func (s *smtpSender) SendOrderConfirmation(ctx context.Context, to string, orderID int64) error {
	ctx, span := s.tracer.Start(ctx, "smtp.SendOrderConfirmation")
	defer span.End()

	span.SetAttributes(
		attribute.String("to.email", to),
		attribute.Int64("order_id", orderID),
	)

	subject := "Subject: Your order is confirmed.\n"
	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	body := fmt.Sprintf(`
		<h1>Thank you for your order!</h1>
		<p>Order #%d has been placed and is waiting for payment.</p>
	`, orderID)

	mylogger.Info(
		ctx,
		s.logger,
		"Sending order confirmation email",
		zap.String("to", to),
		zap.Int64("order_id", orderID),
	)

	if err := s.send(to, subject+mime+body); err != nil {
		span.RecordError(err)
		mylogger.Error(
			ctx,
			s.logger,
			"Error sending order confirmation email",
			zap.String("to", to),
			zap.Error(err),
		)

		return fmt.Errorf("failed to send mail: %w", err)
	}

	mylogger.Info(ctx, s.logger, "Order confirmation email sent successfully", zap.String("to", to))
	return nil
}

func (s *smtpSender) SendPaymentConfirmation(ctx context.Context, to string, transactionID string, amount int64) error {
	ctx, span := s.tracer.Start(ctx, "smtp.SendPaymentConfirmation")
	defer span.End()

	span.SetAttributes(
		attribute.String("to.email", to),
		attribute.String("transaction_id", transactionID),
	)

	subject := "Subject: We received your payment.\n"
	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	body := fmt.Sprintf(`
		<h1>Payment received! 🎉</h1>
		<p>Transaction %s for $%d.%02d completed successfully.</p>
	`, transactionID, amount/100, amount%100)

	mylogger.Info(
		ctx,
		s.logger,
		"Sending payment confirmation email",
		zap.String("to", to),
		zap.String("transaction_id", transactionID),
	)

	if err := s.send(to, subject+mime+body); err != nil {
		span.RecordError(err)
		mylogger.Error(
			ctx,
			s.logger,
			"Error sending payment confirmation email",
			zap.String("to", to),
			zap.Error(err),
		)

		return fmt.Errorf("failed to send mail: %w", err)
	}

	mylogger.Info(ctx, s.logger, "Payment confirmation email sent successfully", zap.String("to", to))
	return nil
}

func (s *smtpSender) send(to, msg string) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.From, s.cfg.Password, s.cfg.Host)

	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg))
}
