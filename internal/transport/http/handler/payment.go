package handler

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Ruthachere/e-commerce-shop/internal/domain"
	"github.com/Ruthachere/e-commerce-shop/internal/service"
	"github.com/Ruthachere/e-commerce-shop/pkg/mylogger"
	"github.com/Ruthachere/e-commerce-shop/pkg/utils"
)

const signatureHeader = "X-Webhook-Signature"

type PaymentHandler struct {
	payments service.PaymentService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewPaymentHandler(payments service.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		validate: validator.New(),
		logger:   logger,
	}
}

type CreatePaymentInput struct {
	OrderID       int64  `json:"order_id" validate:"required,gt=0"`
	PaymentMethod string `json:"payment_method" validate:"required"`
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	TransactionID string `json:"transaction_id"`
}

type UpdatePaymentStatusInput struct {
	Status string `json:"status" validate:"required"`
}

func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	ctx, cancel := contextWithTimeout(c, time.Second)
	defer cancel()

	input := new(CreatePaymentInput)

	if err := c.BodyParser(input); err != nil {
		mylogger.Warn(ctx, h.logger, "failed to parse body in create payment", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": utils.FormatValidationError(err),
		})
	}

	payment, err := h.payments.CreatePayment(ctx, service.CreatePaymentInput{
		OrderID:       input.OrderID,
		PaymentMethod: input.PaymentMethod,
		Amount:        input.Amount,
		TransactionID: input.TransactionID,
	})
	if err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"create payment failed",
			zap.Int64("order_id", input.OrderID),
			zap.Error(err),
		)

		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(payment)
}

func (h *PaymentHandler) FindByID(c *fiber.Ctx) error {
	ctx, cancel := contextWithTimeout(c, time.Second)
	defer cancel()

	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid payment id",
		})
	}

	payment, err := h.payments.GetByID(ctx, id)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(payment)
}

func (h *PaymentHandler) FindByOrderID(c *fiber.Ctx) error {
	ctx, cancel := contextWithTimeout(c, time.Second)
	defer cancel()

	orderID, err := paramID(c, "orderID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid order id",
		})
	}

	payment, err := h.payments.GetByOrderID(ctx, orderID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(payment)
}

func (h *PaymentHandler) UpdateStatus(c *fiber.Ctx) error {
	ctx, cancel := contextWithTimeout(c, time.Second)
	defer cancel()

	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid payment id",
		})
	}

	input := new(UpdatePaymentStatusInput)
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

	payment, err := h.payments.UpdateStatus(ctx, id, domain.PaymentStatus(input.Status))
	if err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"update payment status failed",
			zap.Int64("payment_id", id),
			zap.String("status", input.Status),
			zap.Error(err),
		)

		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(payment)
}

// Webhook handles payment gateway callbacks. The signature covers the raw
// body, so the body is handed to the service untouched.
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	ctx, cancel := contextWithTimeout(c, 5*time.Second)
	defer cancel()

	signature := c.Get(signatureHeader)
	if signature == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "missing signature",
		})
	}

	payment, err := h.payments.HandleGatewayEvent(ctx, c.Body(), signature)
	if err != nil {
		mylogger.Warn(ctx, h.logger, "gateway event rejected", zap.Error(err))

		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(payment)
}
