// Package pricing resolves catalog prices for a set of line items and
// computes the order snapshot (subtotal, discount, tax, shipping, total).
// All amounts are integer cents.
package pricing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Ruthachere/e-commerce-shop/internal/repository"
	"github.com/Ruthachere/e-commerce-shop/pkg/mylogger"
)

const (
	promoWelcome10 = "WELCOME10"

	discountPercent = 10
	taxPercent      = 15

	shippingStandard  = 1000
	shippingExpress   = 2000
	shippingRemoteFee = 500
)

// LineItem references either a variant or, when VariantID is zero, a base
// product.
type LineItem struct {
	VariantID int64
	ProductID int64
	Quantity  int64
}

type PricedItem struct {
	VariantID int64
	ProductID int64
	Quantity  int64
	Price     int64
}

type Quote struct {
	Subtotal int64
	Discount int64
	Tax      int64
	Shipping int64
	Total    int64
	Items    []PricedItem
}

type Calculator struct {
	catalog repository.CatalogRepository
	logger  *zap.Logger
	tracer  trace.Tracer
}

func NewCalculator(catalog repository.CatalogRepository, logger *zap.Logger) *Calculator {
	return &Calculator{
		catalog: catalog,
		logger:  logger,
		tracer:  otel.Tracer("pricing/calculator"),
	}
}

func (c *Calculator) Compute(
	ctx context.Context,
	items []LineItem,
	promoCode string,
	shippingMethod string,
	shippingRegion string,
) (*Quote, error) {
	ctx, span := c.tracer.Start(ctx, "Calculator.Compute")
	defer span.End()

	span.SetAttributes(
		attribute.Int("items_count", len(items)),
		attribute.String("shipping_method", shippingMethod),
	)

	quote := &Quote{Items: make([]PricedItem, 0, len(items))}

	for _, item := range items {
		var (
			pricing *repository.ItemPricing
			err     error
		)

		if item.VariantID != 0 {
			pricing, err = c.catalog.VariantPricing(ctx, item.VariantID)
		} else {
			pricing, err = c.catalog.ProductPricing(ctx, item.ProductID)
		}
		if err != nil {
			mylogger.Warn(
				ctx,
				c.logger,
				"Failed to resolve item pricing",
				zap.Int64("variant_id", item.VariantID),
				zap.Int64("product_id", item.ProductID),
				zap.Error(err),
			)

			return nil, err
		}

		quote.Items = append(quote.Items, PricedItem{
			VariantID: item.VariantID,
			ProductID: pricing.ProductID,
			Quantity:  item.Quantity,
			Price:     pricing.Price,
		})

		quote.Subtotal += pricing.Price * item.Quantity
	}

	if promoCode == promoWelcome10 {
		quote.Discount = quote.Subtotal * discountPercent / 100
	}

	quote.Tax = (quote.Subtotal - quote.Discount) * taxPercent / 100

	if shippingMethod == "express" {
		quote.Shipping = shippingExpress
	} else {
		quote.Shipping = shippingStandard
	}
	if shippingRegion == "remote" {
		quote.Shipping += shippingRemoteFee
	}

	quote.Total = quote.Subtotal - quote.Discount + quote.Tax + quote.Shipping

	return quote, nil
}
