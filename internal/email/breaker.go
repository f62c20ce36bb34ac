package email

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// breakerSender stops hammering a failing SMTP relay. While the breaker is
// open, sends fail fast and the job is retried by the consumer later.
type breakerSender struct {
	inner Sender
	cb    *gobreaker.CircuitBreaker
}

func NewBreakerSender(inner Sender, logger *zap.Logger) Sender {
	settings := gobreaker.Settings{
		Name:        "EmailSender",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn(
				"Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &breakerSender{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker(settings),
	}
}

func (s *breakerSender) SendOrderConfirmation(ctx context.Context, to string, orderID int64) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.inner.SendOrderConfirmation(ctx, to, orderID)
	})
	return err
}

func (s *breakerSender) SendPaymentConfirmation(ctx context.Context, to string, transactionID string, amount int64) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.inner.SendPaymentConfirmation(ctx, to, transactionID, amount)
	})
	return err
}
