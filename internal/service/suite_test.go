package service

import (
	"context"
	"testing"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/Ruthachere/e-commerce-shop/internal/domain"
	"github.com/Ruthachere/e-commerce-shop/internal/kafka"
	"github.com/Ruthachere/e-commerce-shop/internal/outbox"
	"github.com/Ruthachere/e-commerce-shop/internal/realtime"
	"github.com/Ruthachere/e-commerce-shop/internal/repository"
	"github.com/Ruthachere/e-commerce-shop/pkg/testsuite"
)

const testWebhookSecret = "test-webhook-secret"

type IntegrationTestSuite struct {
	testsuite.BaseSuite

	OrderService     OrderService
	InventoryService InventoryService
	PaymentService   PaymentService
	InventoryRepo    repository.InventoryRepository
	OutboxProcessor  *outbox.Processor
	workerCancel     context.CancelFunc
}

func (s *IntegrationTestSuite) SetupSuite() {
	s.BaseSuite.SetupInfrastructure("../../migrations")
}

func (s *IntegrationTestSuite) TearDownSuite() {
	s.BaseSuite.TearDownInfrastructure()
}

func (s *IntegrationTestSuite) SetupTest() {
	s.BaseSuite.TruncateTable("orders")
	s.BaseSuite.TruncateTable("users")
	s.BaseSuite.TruncateTable("products")
	s.BaseSuite.TruncateTable("payments")
	s.BaseSuite.TruncateTable("outbox")
	s.BaseSuite.TruncateTable("processed_events")

	logger := zap.NewNop()

	orderRepo := repository.NewOrderRepository(s.DbPool, logger)
	paymentRepo := repository.NewPaymentRepository(s.DbPool, logger)
	userRepo := repository.NewUserRepository(s.DbPool, logger)
	outboxRepo := outbox.NewRepository(s.DbPool, logger)
	s.InventoryRepo = repository.NewInventoryRepository(s.DbPool, logger)

	broadcaster := realtime.NewRedisBroadcaster(s.RedisClient, logger)

	s.OrderService = NewOrderService(s.DbPool, orderRepo, s.InventoryRepo, userRepo, outboxRepo, broadcaster, logger)
	s.InventoryService = NewInventoryService(s.InventoryRepo, broadcaster, logger)
	s.PaymentService = NewPaymentService(s.DbPool, paymentRepo, orderRepo, userRepo, outboxRepo, broadcaster, testWebhookSecret, logger)

	producer, err := kafka.NewProducer(s.KafkaBrokers)
	s.Require().NoError(err, "failed to create kafka producer")

	s.OutboxProcessor = outbox.NewProcessor(s.DbPool, outboxRepo, producer, logger)

	workerCtx, cancel := context.WithCancel(s.Ctx)
	s.workerCancel = cancel

	go s.OutboxProcessor.Start(workerCtx)
}

func (s *IntegrationTestSuite) TearDownTest() {
	if s.workerCancel != nil {
		s.workerCancel()
	}
}

func (s *IntegrationTestSuite) seedUser(id int64, email string) {
	query := `
		INSERT INTO users (id, email)
		VALUES ($1, $2) ON CONFLICT DO NOTHING
	`

	_, err := s.DbPool.Exec(s.Ctx, query, id, email)
	s.Require().NoError(err)
}

func (s *IntegrationTestSuite) seedVariant(productID, variantID, price, stock int64) {
	_, err := s.DbPool.Exec(s.Ctx, `
		INSERT INTO products (id, name, price)
		VALUES ($1, 'Test Product', $2) ON CONFLICT DO NOTHING
	`, productID, price)
	s.Require().NoError(err)

	_, err = s.DbPool.Exec(s.Ctx, `
		INSERT INTO variants (id, product_id, sku, price)
		VALUES ($1, $2, 'SKU-' || $1, $3)
	`, variantID, productID, price)
	s.Require().NoError(err)

	_, err = s.DbPool.Exec(s.Ctx, `
		INSERT INTO inventory (variant_id, quantity)
		VALUES ($1, $2)
	`, variantID, stock)
	s.Require().NoError(err)
}

// placeOrder submits a single-variant order with a consistent snapshot.
func (s *IntegrationTestSuite) placeOrder(userID, variantID, quantity, price int64) (*domain.Order, error) {
	subtotal := price * quantity
	tax := subtotal * 15 / 100
	shipping := int64(1000)

	return s.OrderService.PlaceOrder(s.Ctx, PlaceOrderInput{
		UserID:          userID,
		ShippingCity:    "Springfield",
		ShippingState:   "IL",
		ShippingCountry: "US",
		ShippingMethod:  "standard",
		Items: []OrderItemInput{
			{VariantID: variantID, ProductID: 1, Quantity: quantity, Price: price},
		},
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal + tax + shipping,
	})
}

func (s *IntegrationTestSuite) stockOf(variantID int64) int64 {
	var quantity int64
	err := s.DbPool.QueryRow(s.Ctx, `SELECT quantity FROM inventory WHERE variant_id = $1`, variantID).
		Scan(&quantity)
	s.Require().NoError(err)

	return quantity
}

func (s *IntegrationTestSuite) orderStatus(orderID int64) domain.OrderStatus {
	var status domain.OrderStatus
	err := s.DbPool.QueryRow(s.Ctx, `SELECT status FROM orders WHERE id = $1`, orderID).
		Scan(&status)
	s.Require().NoError(err)

	return status
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}
