package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ruthachere/e-commerce-shop/internal/transport/http/handler"
)

type Handlers struct {
	Order     *handler.OrderHandler
	Inventory *handler.InventoryHandler
	Payment   *handler.PaymentHandler
}

func RegisterRoutes(app *fiber.App, h *Handlers) {
	app.Post("/webhooks/payment", h.Payment.Webhook)

	orders := app.Group("/orders")
	orders.Post("", h.Order.Create)
	orders.Get("/:id", h.Order.FindByID)
	orders.Put("/:id/status", h.Order.UpdateStatus)
	orders.Delete("/:id", h.Order.Cancel)

	inventory := app.Group("/inventory")
	inventory.Post("", h.Inventory.Create)
	inventory.Get("/:variantID", h.Inventory.FindByVariantID)
	inventory.Put("/:variantID", h.Inventory.SetLevel)
	inventory.Patch("/adjust/:variantID", h.Inventory.Adjust)

	payments := app.Group("/payments")
	payments.Post("", h.Payment.Create)
	payments.Get("/:id", h.Payment.FindByID)
	payments.Get("/order/:orderID", h.Payment.FindByOrderID)
	payments.Put("/:id", h.Payment.UpdateStatus)
}
