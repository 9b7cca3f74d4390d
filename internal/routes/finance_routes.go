package routes

import (
	"github.com/gofiber/fiber/v2"

	"Printly/internal/handlers"
	"Printly/internal/middleware"
	"Printly/internal/models"
)

func SetupFinanceRoutes(app *fiber.App, h *handlers.FinanceHandler) {
	finance := app.Group("/api/finance",
		middleware.Protected(),
		middleware.RequireRole(models.RoleDesigner, models.RoleBusinessOwner))

	// Point-in-time earnings summary
	finance.Get("/summary", h.GetSummary)

	// Flat transaction history
	finance.Get("/history", h.GetHistory)

	// Bucketed revenue analytics
	finance.Get("/analytics", h.GetAnalytics)
}
