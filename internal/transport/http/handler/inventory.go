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

type InventoryHandler struct {
	inventory service.InventoryService
	validate  *validator.Validate
	logger    *zap.Logger
}

func NewInventoryHandler(inventory service.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventory: inventory,
		validate:  validator.New(),
		logger:    logger,
	}
}

type CreateInventoryInput struct {
	VariantID     int64 `json:"variant_id" validate:"required,gt=0"`
	Quantity      int64 `json:"quantity" validate:"gte=0"`
	MinStockLevel int64 `json:"min_stock_level" validate:"gte=0"`
}

type SetInventoryLevelInput struct {
	Quantity      int64 `json:"quantity" validate:"gte=0"`
	MinStockLevel int64 `json:"min_stock_level" validate:"gte=0"`
}

type AdjustInventoryInput struct {
	Delta int64 `json:"delta" validate:"required"`
}

func (h *InventoryHandler) Create(c *fiber.Ctx) error {
	ctx, cancel := contextWithTimeout(c, time.Second)
	defer cancel()

	input := new(CreateInventoryInput)

	if err := c.BodyParser(input); err != nil {
		mylogger.Warn(ctx, h.logger, "failed to parse body in create inventory", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": utils.FormatValidationError(err),
		})
	}

	minLevel := input.MinStockLevel
	if minLevel == 0 {
		minLevel = domain.DefaultMinStockLevel
	}

	inv, err := h.inventory.Create(ctx, input.VariantID, input.Quantity, minLevel)
	if err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"create inventory failed",
			zap.Int64("variant_id", input.VariantID),
			zap.Error(err),
		)

		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(inv)
}

func (h *InventoryHandler) FindByVariantID(c *fiber.Ctx) error {
	ctx, cancel := contextWithTimeout(c, time.Second)
	defer cancel()

	variantID, err := paramID(c, "variantID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid variant id",
		})
	}

	inv, err := h.inventory.Get(ctx, variantID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(inv)
}

func (h *InventoryHandler) SetLevel(c *fiber.Ctx) error {
	ctx, cancel := contextWithTimeout(c, time.Second)
	defer cancel()

	variantID, err := paramID(c, "variantID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid variant id",
		})
	}

	input := new(SetInventoryLevelInput)
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

	minLevel := input.MinStockLevel
	if minLevel == 0 {
		minLevel = domain.DefaultMinStockLevel
	}

	inv, err := h.inventory.SetLevel(ctx, variantID, input.Quantity, minLevel)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(inv)
}

func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	ctx, cancel := contextWithTimeout(c, time.Second)
	defer cancel()

	variantID, err := paramID(c, "variantID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid variant id",
		})
	}

	input := new(AdjustInventoryInput)
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

	inv, err := h.inventory.Adjust(ctx, variantID, input.Delta)
	if err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"adjust inventory failed",
			zap.Int64("variant_id", variantID),
			zap.Int64("delta", input.Delta),
			zap.Error(err),
		)

		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(inv)
}
