package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/Ruthachere/e-commerce-shop/internal/repository"
)

func (s *IntegrationTestSuite) TestPlaceOrder_Success() {
	s.seedUser(1, "buyer@example.com")
	s.seedVariant(1, 10, 2000, 8)

	order, err := s.placeOrder(1, 10, 3, 2000)
	s.Require().NoError(err)
	s.Require().NotZero(order.ID)

	s.Equal(int64(5), s.stockOf(10))
	s.Len(order.Items, 1)

	// The confirmation job is committed with the order and published by the
	// outbox processor shortly after.
	var outboxID int64
	err = s.DbPool.QueryRow(s.Ctx, `SELECT id FROM outbox WHERE aggregate_id = $1`, fmt.Sprintf("%d", order.ID)).
		Scan(&outboxID)
	s.Require().NoError(err)

	s.Require().Eventually(func() bool {
		var publishedAt *time.Time

		err := s.DbPool.QueryRow(s.Ctx, `SELECT published_at FROM outbox WHERE id = $1`, outboxID).
			Scan(&publishedAt)

		return err == nil && publishedAt != nil
	}, 5*time.Second, 100*time.Millisecond)
}

func (s *IntegrationTestSuite) TestPlaceOrder_InsufficientStock() {
	s.seedUser(1, "buyer@example.com")
	s.seedVariant(1, 10, 2000, 2)

	_, err := s.placeOrder(1, 10, 3, 2000)
	s.Require().ErrorIs(err, repository.ErrInsufficientStock)

	s.Equal(int64(2), s.stockOf(10))

	var count int
	err = s.DbPool.QueryRow(s.Ctx, `SELECT COUNT(*) FROM orders`).Scan(&count)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *IntegrationTestSuite) TestPlaceOrder_SecondItemShortfallRollsBackFirst() {
	s.seedUser(1, "buyer@example.com")
	s.seedVariant(1, 10, 2000, 10)
	s.seedVariant(2, 20, 3000, 1)

	_, err := s.OrderService.PlaceOrder(s.Ctx, PlaceOrderInput{
		UserID:          1,
		ShippingCity:    "Springfield",
		ShippingState:   "IL",
		ShippingCountry: "US",
		ShippingMethod:  "standard",
		Items: []OrderItemInput{
			{VariantID: 10, ProductID: 1, Quantity: 2, Price: 2000},
			{VariantID: 20, ProductID: 2, Quantity: 5, Price: 3000},
		},
		Subtotal: 19000,
		Tax:      2850,
		Shipping: 1000,
		Total:    22850,
	})
	s.Require().ErrorIs(err, repository.ErrInsufficientStock)

	s.Equal(int64(10), s.stockOf(10))
	s.Equal(int64(1), s.stockOf(20))
}

func (s *IntegrationTestSuite) TestPlaceOrder_ConcurrentNoOversell() {
	s.seedUser(1, "buyer@example.com")
	s.seedUser(2, "other@example.com")
	s.seedVariant(1, 10, 2000, 5)

	var wg sync.WaitGroup
	errs := make([]error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.placeOrder(int64(i+1), 10, 3, 2000)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			s.Require().ErrorIs(err, repository.ErrInsufficientStock)
		}
	}

	s.Equal(1, succeeded)
	s.Equal(int64(2), s.stockOf(10))
}

func (s *IntegrationTestSuite) TestPlaceOrder_NoContactEmail() {
	s.seedVariant(1, 10, 2000, 5)

	_, err := s.placeOrder(777, 10, 1, 2000)
	s.Require().ErrorIs(err, ErrMissingContactInfo)

	s.Equal(int64(5), s.stockOf(10))
}

func (s *IntegrationTestSuite) TestPlaceOrder_BadSnapshotRejected() {
	s.seedUser(1, "buyer@example.com")
	s.seedVariant(1, 10, 2000, 5)

	_, err := s.OrderService.PlaceOrder(s.Ctx, PlaceOrderInput{
		UserID:         1,
		ShippingMethod: "standard",
		Items: []OrderItemInput{
			{VariantID: 10, ProductID: 1, Quantity: 1, Price: 2000},
		},
		Subtotal: 9999,
		Total:    9999,
	})
	s.Require().ErrorIs(err, ErrInvalidSnapshot)
}
