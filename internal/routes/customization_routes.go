package routes

import (
	"github.com/gofiber/fiber/v2"

	"Printly/internal/handlers"
	"Printly/internal/middleware"
	"Printly/internal/models"
)

func SetupCustomizationRoutes(app *fiber.App, h *handlers.CustomizationHandler, payments *handlers.PaymentHandler) {
	requests := app.Group("/api/customizations", middleware.Protected())

	// Create new request (customer)
	requests.Post("/", h.CreateRequest)

	// List my requests (any role, scoped by side)
	requests.Get("/", h.GetMyRequests)

	// Upload a design deliverable (designer)
	requests.Post("/upload", middleware.RequireRole(models.RoleDesigner), h.UploadDeliverable)

	// Get specific request
	requests.Get("/:id", h.GetRequestByID)

	// Designer delivers work for review
	requests.Post("/:id/submit", middleware.RequireRole(models.RoleDesigner), h.SubmitWork)

	// Customer approves or rejects the design
	requests.Post("/:id/approve", h.ApproveRequest)
	requests.Post("/:id/reject", h.RejectRequest)

	// Printing shop milestones
	requests.Post("/:id/pricing", middleware.RequireRole(models.RoleBusinessOwner), h.SetProductionPricing)
	requests.Post("/:id/start-production", middleware.RequireRole(models.RoleBusinessOwner), h.StartProduction)
	requests.Post("/:id/complete", middleware.RequireRole(models.RoleBusinessOwner), h.CompleteProduction)

	// Customer withdraws before production
	requests.Post("/:id/cancel", h.CancelRequest)

	// Escrow funding
	requests.Post("/:id/pay", payments.InitializePayment)
	app.Get("/api/payments/verify/:reference", payments.VerifyPayment)
}
