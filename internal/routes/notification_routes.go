package routes

import (
	"github.com/gofiber/fiber/v2"

	"Printly/internal/handlers"
	"Printly/internal/middleware"
)

func SetupNotificationRoutes(app *fiber.App) {
	notifications := app.Group("/api/notifications", middleware.Protected())

	// Get all notifications
	notifications.Get("/", handlers.GetNotifications)

	// Get unread count
	notifications.Get("/unread-count", handlers.GetUnreadCount)

	// Mark one as read
	notifications.Put("/:id/read", handlers.MarkAsRead)

	// Mark all as read
	notifications.Put("/read-all", handlers.MarkAllAsRead)

	// Delete a notification
	notifications.Delete("/:id", handlers.DeleteNotification)
}
