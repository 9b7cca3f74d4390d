package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"Printly/internal/customization"
	"Printly/internal/models"
	"Printly/internal/repository"
	"Printly/internal/services"
)

type PaymentHandler struct {
	lifecycle      *customization.Service
	customizations *repository.CustomizationRepository
	paystack       *services.PaystackService
}

func NewPaymentHandler(
	lifecycle *customization.Service,
	customizations *repository.CustomizationRepository,
	paystack *services.PaystackService,
) *PaymentHandler {
	return &PaymentHandler{
		lifecycle:      lifecycle,
		customizations: customizations,
		paystack:       paystack,
	}
}

// InitializePayment starts a checkout for the outstanding balance of a
// customization request and records a pending payment attempt.
func (h *PaymentHandler) InitializePayment(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request id",
		})
	}
	userID := c.Locals("user_id").(uint)
	email := c.Locals("email").(string)

	req, err := h.customizations.FindByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Request not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database error",
		})
	}

	if req.CustomerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the customer can pay for this request",
		})
	}
	if req.Pricing == nil || req.Pricing.TotalCost <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Request has no agreed price yet",
		})
	}

	outstanding := req.Pricing.TotalCost - req.Payment.PaidAmount
	if outstanding <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Request is already fully paid",
		})
	}

	reference := paymentReference(req.ID)
	init, err := h.paystack.InitializePayment(email, outstanding, reference, c.Query("callback_url"))
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to initialize payment",
		})
	}

	record := models.PaymentRecord{
		ID:            reference,
		Amount:        outstanding,
		Status:        models.PaymentRecordPending,
		PaymentMethod: "paystack",
		InvoiceURL:    init.Data.AuthorizationURL,
	}
	if _, err := h.lifecycle.RecordPayment(c.Context(), req.ID, record); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record payment attempt",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Payment initialized. Complete checkout to fund the escrow.",
		"payment": fiber.Map{
			"reference":         reference,
			"amount":            outstanding,
			"authorization_url": init.Data.AuthorizationURL,
		},
	})
}

// VerifyPayment is the gateway callback: it verifies the reference and
// appends the final success or failed payment record.
func (h *PaymentHandler) VerifyPayment(c *fiber.Ctx) error {
	reference := c.Params("reference")

	requestID, ok := requestIDFromReference(reference)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid payment reference",
		})
	}

	verification, err := h.paystack.VerifyPayment(reference)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to verify payment",
		})
	}

	status := models.PaymentRecordFailed
	if verification.Data.Status == "success" {
		status = models.PaymentRecordSuccess
	}
	now := time.Now()
	record := models.PaymentRecord{
		ID:            uuid.NewString(),
		Amount:        float64(verification.Data.Amount) / 100,
		Status:        status,
		PaidAt:        &now,
		PaymentMethod: verification.Data.Channel,
	}

	updated, err := h.lifecycle.RecordPayment(c.Context(), requestID, record)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Request not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record payment",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Payment verified",
		"payment": fiber.Map{
			"reference":      reference,
			"status":         status,
			"amount":         record.Amount,
			"payment_status": updated.Payment.PaymentStatus,
			"paid_amount":    updated.Payment.PaidAmount,
		},
	})
}

func paymentReference(requestID uint) string {
	return fmt.Sprintf("CRQ-%d-%s", requestID, uuid.NewString()[:8])
}

func requestIDFromReference(reference string) (uint, bool) {
	parts := strings.Split(reference, "-")
	if len(parts) < 3 || parts[0] != "CRQ" {
		return 0, false
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
