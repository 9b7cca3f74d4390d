package routes

import (
	"github.com/gofiber/fiber/v2"

	"Printly/internal/handlers"
	"Printly/internal/middleware"
)

func SetupOrderRoutes(app *fiber.App, h *handlers.OrderHandler) {
	orders := app.Group("/api/orders", middleware.Protected())

	// List my orders
	orders.Get("/", h.GetMyOrders)

	// Get specific order
	orders.Get("/:id", h.GetOrderByID)
}
