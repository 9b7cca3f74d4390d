package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Printly/internal/customization"
	"Printly/internal/models"
	"Printly/internal/repository"
	"Printly/internal/services"
)

type CustomizationHandler struct {
	lifecycle      *customization.Service
	customizations *repository.CustomizationRepository
	profiles       *repository.ProfileRepository
	uploads        *services.CloudinaryService
}

func NewCustomizationHandler(
	lifecycle *customization.Service,
	customizations *repository.CustomizationRepository,
	profiles *repository.ProfileRepository,
	uploads *services.CloudinaryService,
) *CustomizationHandler {
	return &CustomizationHandler{
		lifecycle:      lifecycle,
		customizations: customizations,
		profiles:       profiles,
		uploads:        uploads,
	}
}

type CreateCustomizationRequest struct {
	ProductID   *uint   `json:"product_id"`
	ProductName string  `json:"product_name" validate:"required"`
	Brief       string  `json:"brief" validate:"required"`
	DesignFee   float64 `json:"design_fee" validate:"required,gt=0"`
}

type SubmitWorkRequest struct {
	FinalFileURL    string `json:"final_file_url" validate:"required"`
	PreviewImageURL string `json:"preview_image_url"`
	Notes           string `json:"notes"`
}

type RejectWorkRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type ProductionPricingRequest struct {
	ProductCost  float64 `json:"product_cost" validate:"gte=0"`
	PrintingCost float64 `json:"printing_cost" validate:"gte=0"`
}

// CreateRequest opens a new customization request for the logged-in customer
func (h *CustomizationHandler) CreateRequest(c *fiber.Ctx) error {
	req := new(CreateCustomizationRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	customerID := c.Locals("user_id").(uint)

	created, err := h.lifecycle.Create(c.Context(), customization.CreateInput{
		CustomerID:  customerID,
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		Brief:       req.Brief,
		DesignFee:   req.DesignFee,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create customization request",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Customization request created. Waiting for a designer.",
		"request": created,
	})
}

// GetMyRequests lists the requests on the caller's side of the marketplace
func (h *CustomizationHandler) GetMyRequests(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)
	role, _ := c.Locals("role").(models.UserRole)

	var (
		requests []models.CustomizationRequest
		err      error
	)
	switch role {
	case models.RoleDesigner:
		requests, err = h.customizations.FindByDesigner(c.Context(), userID)
	case models.RoleBusinessOwner:
		profile, perr := h.profiles.ShopProfileByUserID(c.Context(), userID)
		if perr != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Shop profile not found",
			})
		}
		requests, err = h.customizations.FindByShop(c.Context(), profile.ID)
	default:
		requests, err = h.customizations.FindByCustomer(c.Context(), userID)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve requests",
		})
	}

	return c.JSON(fiber.Map{
		"requests": requests,
		"count":    len(requests),
	})
}

// GetRequestByID retrieves a specific request visible to the caller
func (h *CustomizationHandler) GetRequestByID(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request id",
		})
	}
	userID := c.Locals("user_id").(uint)

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

	if req.CustomerID != userID &&
		(req.DesignerID == nil || *req.DesignerID != userID) &&
		!h.ownsShop(c, req) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have access to this request",
		})
	}

	return c.JSON(fiber.Map{"request": req})
}

func (h *CustomizationHandler) ownsShop(c *fiber.Ctx, req *models.CustomizationRequest) bool {
	if req.PrintingShopID == nil {
		return false
	}
	profile, err := h.profiles.ShopProfileByUserID(c.Context(), c.Locals("user_id").(uint))
	return err == nil && profile.ID == *req.PrintingShopID
}

// SubmitWork - designer claims the request and delivers the design
func (h *CustomizationHandler) SubmitWork(c *fiber.Ctx) error {
	req := new(SubmitWorkRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	requestID, designerID, ok := h.pathAndUser(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request id",
		})
	}

	updated, err := h.lifecycle.SubmitWork(c.Context(), designerID, requestID,
		req.FinalFileURL, req.PreviewImageURL, req.Notes)
	if err != nil {
		return transitionError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Work submitted. Waiting for customer approval.",
		"request": updated,
	})
}

// ApproveRequest - customer approves the submitted design
func (h *CustomizationHandler) ApproveRequest(c *fiber.Ctx) error {
	requestID, customerID, ok := h.pathAndUser(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request id",
		})
	}

	updated, err := h.lifecycle.Approve(c.Context(), customerID, requestID)
	if err != nil {
		return transitionError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Design approved. The designer payout is now eligible for release.",
		"request": updated,
	})
}

// RejectRequest - customer sends the design back for revision
func (h *CustomizationHandler) RejectRequest(c *fiber.Ctx) error {
	body := new(RejectWorkRequest)
	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	requestID, customerID, ok := h.pathAndUser(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request id",
		})
	}

	updated, err := h.lifecycle.Reject(c.Context(), customerID, requestID, body.Reason)
	if err != nil {
		return transitionError(c, err)
	}

	message := "Design sent back for revision."
	if updated.Status == models.RequestRejected {
		message = "Revision budget exhausted. Request rejected."
	}
	return c.JSON(fiber.Map{
		"message": message,
		"request": updated,
	})
}

// SetProductionPricing - the printing shop finalizes production costs
func (h *CustomizationHandler) SetProductionPricing(c *fiber.Ctx) error {
	body := new(ProductionPricingRequest)
	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	requestID, userID, ok := h.pathAndUser(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request id",
		})
	}

	profile, err := h.profiles.ShopProfileByUserID(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Shop profile not found",
		})
	}

	updated, err := h.lifecycle.SetProductionPricing(c.Context(), profile.ID, requestID,
		body.ProductCost, body.PrintingCost)
	if err != nil {
		return transitionError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Production priced. Ready for production.",
		"request": updated,
	})
}

// StartProduction - the shop begins producing the goods
func (h *CustomizationHandler) StartProduction(c *fiber.Ctx) error {
	requestID, userID, ok := h.pathAndUser(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request id",
		})
	}
	profile, err := h.profiles.ShopProfileByUserID(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Shop profile not found",
		})
	}

	updated, err := h.lifecycle.StartProduction(c.Context(), profile.ID, requestID)
	if err != nil {
		return transitionError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Production started.",
		"request": updated,
	})
}

// CompleteProduction - the shop finishes the order
func (h *CustomizationHandler) CompleteProduction(c *fiber.Ctx) error {
	requestID, userID, ok := h.pathAndUser(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request id",
		})
	}
	profile, err := h.profiles.ShopProfileByUserID(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Shop profile not found",
		})
	}

	updated, err := h.lifecycle.CompleteProduction(c.Context(), profile.ID, requestID)
	if err != nil {
		return transitionError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Order completed.",
		"request": updated,
	})
}

// CancelRequest - customer withdraws before production
func (h *CustomizationHandler) CancelRequest(c *fiber.Ctx) error {
	requestID, customerID, ok := h.pathAndUser(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request id",
		})
	}

	if err := h.lifecycle.Cancel(c.Context(), customerID, requestID); err != nil {
		return transitionError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Customization request cancelled",
	})
}

// UploadDeliverable - designer uploads a design asset and gets back its URL
func (h *CustomizationHandler) UploadDeliverable(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file provided",
		})
	}

	result, err := h.uploads.UploadDeliverable(file, "printly/deliverables")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Upload failed: %v", err),
		})
	}

	return c.JSON(fiber.Map{
		"message": "File uploaded successfully",
		"file":    result,
	})
}

func (h *CustomizationHandler) pathAndUser(c *fiber.Ctx) (requestID, userID uint, ok bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return uint(id), c.Locals("user_id").(uint), true
}

func transitionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Request not found",
		})
	case errors.Is(err, customization.ErrNotAllowed):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not allowed to perform this action",
		})
	case errors.Is(err, customization.ErrInvalidTransition),
		errors.Is(err, customization.ErrNoPricing):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update request",
		})
	}
}
