package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ruthachere/e-commerce-shop/internal/repository"
)

type fakeCatalog struct {
	variants map[int64]*repository.ItemPricing
	products map[int64]*repository.ItemPricing
}

func (f *fakeCatalog) VariantPricing(_ context.Context, variantID int64) (*repository.ItemPricing, error) {
	p, ok := f.variants[variantID]
	if !ok {
		return nil, repository.ErrVariantNotFound
	}
	return p, nil
}

func (f *fakeCatalog) ProductPricing(_ context.Context, productID int64) (*repository.ItemPricing, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func newTestCalculator() *Calculator {
	catalog := &fakeCatalog{
		variants: map[int64]*repository.ItemPricing{
			10: {ProductID: 1, Price: 2000},
			11: {ProductID: 1, Price: 2500},
		},
		products: map[int64]*repository.ItemPricing{
			2: {ProductID: 2, Price: 1000},
		},
	}

	return NewCalculator(catalog, zap.NewNop())
}

func TestComputeStandardShipping(t *testing.T) {
	calc := newTestCalculator()

	quote, err := calc.Compute(context.Background(), []LineItem{
		{VariantID: 10, Quantity: 2},
	}, "", "standard", "")
	require.NoError(t, err)

	assert.Equal(t, int64(4000), quote.Subtotal)
	assert.Equal(t, int64(0), quote.Discount)
	assert.Equal(t, int64(600), quote.Tax)
	assert.Equal(t, int64(1000), quote.Shipping)
	assert.Equal(t, int64(5600), quote.Total)
}

func TestComputeWelcomeDiscount(t *testing.T) {
	calc := newTestCalculator()

	quote, err := calc.Compute(context.Background(), []LineItem{
		{VariantID: 10, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}, "WELCOME10", "express", "remote")
	require.NoError(t, err)

	// subtotal 5000, discount 500, tax 15% of 4500 = 675, shipping 2000+500
	assert.Equal(t, int64(5000), quote.Subtotal)
	assert.Equal(t, int64(500), quote.Discount)
	assert.Equal(t, int64(675), quote.Tax)
	assert.Equal(t, int64(2500), quote.Shipping)
	assert.Equal(t, int64(8175), quote.Total)
}

func TestComputeUnknownPromoIgnored(t *testing.T) {
	calc := newTestCalculator()

	quote, err := calc.Compute(context.Background(), []LineItem{
		{ProductID: 2, Quantity: 1},
	}, "SOMETHING", "standard", "")
	require.NoError(t, err)

	assert.Equal(t, int64(0), quote.Discount)
}

func TestComputeVariantTakesPrecedence(t *testing.T) {
	calc := newTestCalculator()

	quote, err := calc.Compute(context.Background(), []LineItem{
		{VariantID: 11, ProductID: 2, Quantity: 1},
	}, "", "standard", "")
	require.NoError(t, err)

	require.Len(t, quote.Items, 1)
	assert.Equal(t, int64(2500), quote.Items[0].Price)
	assert.Equal(t, int64(1), quote.Items[0].ProductID)
}

func TestComputeUnknownVariant(t *testing.T) {
	calc := newTestCalculator()

	_, err := calc.Compute(context.Background(), []LineItem{
		{VariantID: 404, Quantity: 1},
	}, "", "standard", "")

	assert.ErrorIs(t, err, repository.ErrVariantNotFound)
}
