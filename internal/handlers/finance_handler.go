package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"Printly/internal/finance"
	"Printly/internal/models"
)

type FinanceHandler struct {
	finance *finance.Service
}

func NewFinanceHandler(svc *finance.Service) *FinanceHandler {
	return &FinanceHandler{finance: svc}
}

// GetSummary returns the caller's point-in-time financial summary
func (h *FinanceHandler) GetSummary(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)
	role, _ := c.Locals("role").(models.UserRole)
	timeRange := parseTimeRange(c.Query("time_range"))

	summary, err := h.finance.GetFinanceSummary(c.Context(), userID, role, timeRange)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute finance summary",
		})
	}

	return c.JSON(fiber.Map{
		"summary":    summary,
		"time_range": timeRange,
	})
}

// GetHistory returns the caller's normalized payment transaction listing
func (h *FinanceHandler) GetHistory(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)
	role, _ := c.Locals("role").(models.UserRole)

	filter := models.HistoryFilter{
		Status: models.TransactionStatus(c.Query("status")),
		Type:   models.TransactionType(c.Query("type")),
	}
	if from := parseDate(c.Query("date_from")); from != nil {
		filter.DateFrom = from
	}
	if to := parseDate(c.Query("date_to")); to != nil {
		filter.DateTo = to
	}

	transactions, err := h.finance.GetPaymentHistory(c.Context(), userID, role, filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve payment history",
		})
	}

	return c.JSON(fiber.Map{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// GetAnalytics returns the caller's bucketed revenue time series
func (h *FinanceHandler) GetAnalytics(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)
	role, _ := c.Locals("role").(models.UserRole)
	timeRange := parseTimeRange(c.Query("time_range"))

	analytics, err := h.finance.GetRevenueAnalytics(c.Context(), userID, role, timeRange)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute revenue analytics",
		})
	}

	return c.JSON(fiber.Map{
		"analytics":  analytics,
		"time_range": timeRange,
	})
}

func parseTimeRange(raw string) models.TimeRange {
	switch models.TimeRange(raw) {
	case models.Range7Days, models.Range30Days, models.Range90Days, models.Range1Year:
		return models.TimeRange(raw)
	default:
		return models.RangeAll
	}
}

func parseDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	return nil
}
