package service

import (
	"github.com/Ruthachere/e-commerce-shop/internal/domain"
	"github.com/Ruthachere/e-commerce-shop/internal/repository"
)

func (s *IntegrationTestSuite) TestCancelOrder_RestoresStock() {
	s.seedUser(1, "buyer@example.com")
	s.seedVariant(1, 10, 2000, 8)

	order, err := s.placeOrder(1, 10, 3, 2000)
	s.Require().NoError(err)
	s.Equal(int64(5), s.stockOf(10))

	s.Require().NoError(s.OrderService.Cancel(s.Ctx, order.ID))

	s.Equal(int64(8), s.stockOf(10))

	_, err = s.OrderService.GetByID(s.Ctx, order.ID)
	s.Require().ErrorIs(err, repository.ErrOrderNotFound)
}

func (s *IntegrationTestSuite) TestCancelOrder_ShippedNotCancellable() {
	s.seedUser(1, "buyer@example.com")
	s.seedVariant(1, 10, 2000, 8)

	order, err := s.placeOrder(1, 10, 2, 2000)
	s.Require().NoError(err)

	_, err = s.OrderService.UpdateStatus(s.Ctx, order.ID, domain.OrderStatusShipped)
	s.Require().NoError(err)

	err = s.OrderService.Cancel(s.Ctx, order.ID)
	s.Require().ErrorIs(err, ErrIllegalState)

	// Nothing rolled back, nothing restored.
	s.Equal(int64(6), s.stockOf(10))
	s.Equal(domain.OrderStatusShipped, s.orderStatus(order.ID))
}

func (s *IntegrationTestSuite) TestUpdateStatus_Lifecycle() {
	s.seedUser(1, "buyer@example.com")
	s.seedVariant(1, 10, 2000, 8)

	order, err := s.placeOrder(1, 10, 1, 2000)
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusPending, order.Status)

	order, err = s.OrderService.UpdateStatus(s.Ctx, order.ID, domain.OrderStatusShipped)
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusShipped, order.Status)

	order, err = s.OrderService.UpdateStatus(s.Ctx, order.ID, domain.OrderStatusDelivered)
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusDelivered, order.Status)

	// Delivered is terminal.
	_, err = s.OrderService.UpdateStatus(s.Ctx, order.ID, domain.OrderStatusPending)
	s.Require().ErrorIs(err, ErrIllegalTransition)
}

func (s *IntegrationTestSuite) TestUpdateStatus_InvalidStatus() {
	s.seedUser(1, "buyer@example.com")
	s.seedVariant(1, 10, 2000, 8)

	order, err := s.placeOrder(1, 10, 1, 2000)
	s.Require().NoError(err)

	_, err = s.OrderService.UpdateStatus(s.Ctx, order.ID, domain.OrderStatus("Refunded"))
	s.Require().ErrorIs(err, ErrInvalidStatus)
}

func (s *IntegrationTestSuite) TestInventoryService_AdjustAndSetLevel() {
	s.seedVariant(1, 10, 2000, 8)

	inv, err := s.InventoryService.Adjust(s.Ctx, 10, -3)
	s.Require().NoError(err)
	s.Equal(int64(5), inv.Quantity)

	_, err = s.InventoryService.Adjust(s.Ctx, 10, -6)
	s.Require().ErrorIs(err, repository.ErrInvalidAdjustment)
	s.Equal(int64(5), s.stockOf(10))

	inv, err = s.InventoryService.SetLevel(s.Ctx, 10, 20, 5)
	s.Require().NoError(err)
	s.Equal(int64(20), inv.Quantity)

	_, err = s.InventoryService.Adjust(s.Ctx, 999, 1)
	s.Require().ErrorIs(err, repository.ErrInventoryNotFound)
}
