package handler

import (
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Ruthachere/e-commerce-shop/internal/domain"
	"github.com/Ruthachere/e-commerce-shop/internal/pricing"
	"github.com/Ruthachere/e-commerce-shop/internal/service"
	"github.com/Ruthachere/e-commerce-shop/pkg/mylogger"
	"github.com/Ruthachere/e-commerce-shop/pkg/utils"
)

type OrderHandler struct {
	orders     service.OrderService
	calculator *pricing.Calculator
	validate   *validator.Validate
	logger     *zap.Logger
}

func NewOrderHandler(orders service.OrderService, calculator *pricing.Calculator, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orders:     orders,
		calculator: calculator,
		validate:   validator.New(),
		logger:     logger,
	}
}

type CreateOrderItemInput struct {
	VariantID int64 `json:"variant_id" validate:"gte=0"`
	ProductID int64 `json:"product_id" validate:"gte=0"`
	Quantity  int64 `json:"quantity" validate:"required,gt=0"`
}

type CreateOrderInput struct {
	UserID          int64                  `json:"user_id" validate:"required,gt=0"`
	Items           []CreateOrderItemInput `json:"items" validate:"required,min=1,dive"`
	PromoCode       string                 `json:"promo_code" validate:"omitempty,max=32"`
	ShippingCity    string                 `json:"shipping_city" validate:"required"`
	ShippingState   string                 `json:"shipping_state" validate:"required"`
	ShippingCountry string                 `json:"shipping_country" validate:"required"`
	ShippingMethod  string                 `json:"shipping_method" validate:"required,oneof=standard express"`
	ShippingRegion  string                 `json:"shipping_region" validate:"omitempty,oneof=domestic remote"`
}

type UpdateOrderStatusInput struct {
	Status string `json:"status" validate:"required"`
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	ctx, cancel := contextWithTimeout(c, 5*time.Second)
	defer cancel()

	input := new(CreateOrderInput)

	if err := c.BodyParser(input); err != nil {
		mylogger.Warn(ctx, h.logger, "failed to parse body in create order", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		mylogger.Warn(ctx, h.logger, "invalid create order input", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": utils.FormatValidationError(err),
		})
	}

	lineItems := make([]pricing.LineItem, 0, len(input.Items))
	for _, item := range input.Items {
		if item.VariantID == 0 && item.ProductID == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "each item needs a variant_id or a product_id",
			})
		}

		lineItems = append(lineItems, pricing.LineItem{
			VariantID: item.VariantID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	quote, err := h.calculator.Compute(ctx, lineItems, input.PromoCode, input.ShippingMethod, input.ShippingRegion)
	if err != nil {
		return errorResponse(c, err)
	}

	placeInput := service.PlaceOrderInput{
		UserID:          input.UserID,
		ShippingCity:    input.ShippingCity,
		ShippingState:   input.ShippingState,
		ShippingCountry: input.ShippingCountry,
		ShippingMethod:  input.ShippingMethod,
		Subtotal:        quote.Subtotal,
		Discount:        quote.Discount,
		Tax:             quote.Tax,
		Shipping:        quote.Shipping,
		Total:           quote.Total,
	}
	for _, item := range quote.Items {
		placeInput.Items = append(placeInput.Items, service.OrderItemInput{
			VariantID: item.VariantID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	order, err := h.orders.PlaceOrder(ctx, placeInput)
	if err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"place order failed",
			zap.Int64("user_id", input.UserID),
			zap.Error(err),
		)

		return errorResponse(c, err)
	}

	mylogger.Info(
		ctx,
		h.logger,
		"order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", order.UserID),
	)

	return c.Status(fiber.StatusCreated).JSON(order)
}

func (h *OrderHandler) FindByID(c *fiber.Ctx) error {
	ctx, cancel := contextWithTimeout(c, time.Second)
	defer cancel()

	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid order id",
		})
	}

	order, err := h.orders.GetByID(ctx, id)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(order)
}

func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	ctx, cancel := contextWithTimeout(c, time.Second)
	defer cancel()

	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid order id",
		})
	}

	input := new(UpdateOrderStatusInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": utils.FormatValidationError(err),
		})
	}

	order, err := h.orders.UpdateStatus(ctx, id, domain.OrderStatus(input.Status))
	if err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"update order status failed",
			zap.Int64("order_id", id),
			zap.String("status", input.Status),
			zap.Error(err),
		)

		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(order)
}

func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	ctx, cancel := contextWithTimeout(c, 5*time.Second)
	defer cancel()

	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid order id",
		})
	}

	if err := h.orders.Cancel(ctx, id); err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"cancel order failed",
			zap.Int64("order_id", id),
			zap.Error(err),
		)

		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
	})
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	return strconv.ParseInt(c.Params(name), 10, 64)
}
