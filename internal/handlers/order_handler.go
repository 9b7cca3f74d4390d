package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Printly/internal/models"
	"Printly/internal/repository"
)

type OrderHandler struct {
	orders *repository.OrderRepository
}

func NewOrderHandler(orders *repository.OrderRepository) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// GetMyOrders lists orders for the caller: purchases for customers, sales
// for business owners and designers
func (h *OrderHandler) GetMyOrders(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)
	role, _ := c.Locals("role").(models.UserRole)

	var (
		orders []models.Order
		err    error
	)
	if role == models.RoleBusinessOwner || role == models.RoleDesigner {
		orders, err = h.orders.FindByBusinessOwner(c.Context(), userID)
	} else {
		orders, err = h.orders.FindByCustomer(c.Context(), userID)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve orders",
		})
	}

	return c.JSON(fiber.Map{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrderByID retrieves a specific order visible to the caller
func (h *OrderHandler) GetOrderByID(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid order id",
		})
	}
	userID := c.Locals("user_id").(uint)

	order, err := h.orders.FindByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Order not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database error",
		})
	}

	if order.CustomerID != userID && order.BusinessOwnerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have access to this order",
		})
	}

	return c.JSON(fiber.Map{"order": order})
}
