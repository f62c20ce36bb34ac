package service

import (
	"encoding/json"
	"fmt"

	"github.com/Ruthachere/e-commerce-shop/internal/domain"
	"github.com/Ruthachere/e-commerce-shop/internal/repository"
)

func (s *IntegrationTestSuite) gatewayBody(orderID int64, status domain.PaymentStatus, amount int64) []byte {
	body, err := json.Marshal(GatewayEvent{
		OrderID:       orderID,
		TransactionID: fmt.Sprintf("tx-%d", orderID),
		Amount:        amount,
		PaymentMethod: "card",
		Status:        status,
	})
	s.Require().NoError(err)

	return body
}

func (s *IntegrationTestSuite) TestGatewayEvent_CompletedKeepsOrderPending() {
	s.seedUser(1, "buyer@example.com")
	s.seedVariant(1, 10, 2000, 8)

	order, err := s.placeOrder(1, 10, 1, 2000)
	s.Require().NoError(err)

	body := s.gatewayBody(order.ID, domain.PaymentStatusCompleted, order.Total)

	payment, err := s.PaymentService.HandleGatewayEvent(s.Ctx, body, signBody(testWebhookSecret, body))
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusCompleted, payment.Status)
	s.Equal(order.ID, payment.OrderID)

	s.Equal(domain.OrderStatusPending, s.orderStatus(order.ID))

	// Completed payments queue a confirmation email job.
	var count int
	err = s.DbPool.QueryRow(s.Ctx, `SELECT COUNT(*) FROM outbox WHERE event_type = $1`, domain.JobPaymentConfirmation).
		Scan(&count)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *IntegrationTestSuite) TestGatewayEvent_FailedCancelsOrder() {
	s.seedUser(1, "buyer@example.com")
	s.seedVariant(1, 10, 2000, 8)

	order, err := s.placeOrder(1, 10, 1, 2000)
	s.Require().NoError(err)

	body := s.gatewayBody(order.ID, domain.PaymentStatusFailed, order.Total)

	payment, err := s.PaymentService.HandleGatewayEvent(s.Ctx, body, signBody(testWebhookSecret, body))
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusFailed, payment.Status)

	s.Equal(domain.OrderStatusCancelled, s.orderStatus(order.ID))
}

func (s *IntegrationTestSuite) TestGatewayEvent_ReplayIsNoOp() {
	s.seedUser(1, "buyer@example.com")
	s.seedVariant(1, 10, 2000, 8)

	order, err := s.placeOrder(1, 10, 1, 2000)
	s.Require().NoError(err)

	body := s.gatewayBody(order.ID, domain.PaymentStatusCompleted, order.Total)
	sig := signBody(testWebhookSecret, body)

	first, err := s.PaymentService.HandleGatewayEvent(s.Ctx, body, sig)
	s.Require().NoError(err)

	second, err := s.PaymentService.HandleGatewayEvent(s.Ctx, body, sig)
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)

	var payments, jobs int
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `SELECT COUNT(*) FROM payments`).Scan(&payments))
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `SELECT COUNT(*) FROM outbox WHERE event_type = $1`, domain.JobPaymentConfirmation).Scan(&jobs))
	s.Equal(1, payments)
	s.Equal(1, jobs)
}

func (s *IntegrationTestSuite) TestGatewayEvent_BadSignature() {
	s.seedUser(1, "buyer@example.com")
	s.seedVariant(1, 10, 2000, 8)

	order, err := s.placeOrder(1, 10, 1, 2000)
	s.Require().NoError(err)

	body := s.gatewayBody(order.ID, domain.PaymentStatusCompleted, order.Total)

	_, err = s.PaymentService.HandleGatewayEvent(s.Ctx, body, "deadbeef")
	s.Require().ErrorIs(err, ErrInvalidSignature)

	var payments int
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `SELECT COUNT(*) FROM payments`).Scan(&payments))
	s.Zero(payments)
}

func (s *IntegrationTestSuite) TestGatewayEvent_PendingThenCompleted() {
	s.seedUser(1, "buyer@example.com")
	s.seedVariant(1, 10, 2000, 8)

	order, err := s.placeOrder(1, 10, 1, 2000)
	s.Require().NoError(err)

	pendingBody := s.gatewayBody(order.ID, domain.PaymentStatusPending, order.Total)
	payment, err := s.PaymentService.HandleGatewayEvent(s.Ctx, pendingBody, signBody(testWebhookSecret, pendingBody))
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusPending, payment.Status)
	s.Equal(domain.OrderStatusPending, s.orderStatus(order.ID))

	completedBody := s.gatewayBody(order.ID, domain.PaymentStatusCompleted, order.Total)
	payment, err = s.PaymentService.HandleGatewayEvent(s.Ctx, completedBody, signBody(testWebhookSecret, completedBody))
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusCompleted, payment.Status)
	s.Equal(domain.OrderStatusPending, s.orderStatus(order.ID))
}

func (s *IntegrationTestSuite) TestCreatePayment_DuplicateRejected() {
	s.seedUser(1, "buyer@example.com")
	s.seedVariant(1, 10, 2000, 8)

	order, err := s.placeOrder(1, 10, 1, 2000)
	s.Require().NoError(err)

	_, err = s.PaymentService.CreatePayment(s.Ctx, CreatePaymentInput{
		OrderID:       order.ID,
		PaymentMethod: "card",
		Amount:        order.Total,
		TransactionID: "tx-manual",
	})
	s.Require().NoError(err)

	_, err = s.PaymentService.CreatePayment(s.Ctx, CreatePaymentInput{
		OrderID:       order.ID,
		PaymentMethod: "card",
		Amount:        order.Total,
		TransactionID: "tx-manual-2",
	})
	s.Require().ErrorIs(err, repository.ErrPaymentExists)
}

func (s *IntegrationTestSuite) TestUpdatePaymentStatus_DrivesOrder() {
	s.seedUser(1, "buyer@example.com")
	s.seedVariant(1, 10, 2000, 8)

	order, err := s.placeOrder(1, 10, 1, 2000)
	s.Require().NoError(err)

	payment, err := s.PaymentService.CreatePayment(s.Ctx, CreatePaymentInput{
		OrderID:       order.ID,
		PaymentMethod: "card",
		Amount:        order.Total,
		TransactionID: "tx-manual",
	})
	s.Require().NoError(err)

	payment, err = s.PaymentService.UpdateStatus(s.Ctx, payment.ID, domain.PaymentStatusFailed)
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusFailed, payment.Status)
	s.Equal(domain.OrderStatusCancelled, s.orderStatus(order.ID))
}
