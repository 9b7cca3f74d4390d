package customization

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"Printly/internal/models"
)

var (
	// ErrInvalidTransition means the request is not in a state the requested
	// move is allowed from.
	ErrInvalidTransition = errors.New("customization: invalid status transition")
	// ErrNotAllowed means the acting user does not own this side of the
	// request.
	ErrNotAllowed = errors.New("customization: action not allowed for this user")
	// ErrNoPricing means production steps were attempted before a pricing
	// agreement exists.
	ErrNoPricing = errors.New("customization: request has no pricing agreement")
)

// MaxRevisions is the revision budget: after this many customer rejections
// the request lands in the rejected terminal state.
const MaxRevisions = 3

// Notifier delivers best-effort lifecycle notices. Failures are logged and
// never block a transition.
type Notifier interface {
	Notify(userID uint, t models.NotificationType, title, message string, data map[string]any) error
}

// Service drives the customization request state machine. Every transition
// is a guard-then-write inside a transaction.
type Service struct {
	db     *gorm.DB
	notify Notifier
	log    *zap.Logger
}

func NewService(db *gorm.DB, notify Notifier, log *zap.Logger) *Service {
	return &Service{db: db, notify: notify, log: log}
}

type CreateInput struct {
	CustomerID  uint
	ProductID   *uint
	ProductName string
	Brief       string
	DesignFee   float64
}

// Create opens a new request in pending_designer_review with the customer's
// proposed design fee as the initial pricing agreement.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.CustomizationRequest, error) {
	if in.DesignFee < 0 {
		return nil, fmt.Errorf("customization: design fee must not be negative")
	}
	req := models.CustomizationRequest{
		CustomerID:  in.CustomerID,
		ProductID:   in.ProductID,
		ProductName: in.ProductName,
		Brief:       in.Brief,
		Status:      models.RequestPendingDesignerReview,
		Pricing: &models.PricingAgreement{
			DesignFee: in.DesignFee,
			TotalCost: in.DesignFee,
		},
		Payment: models.PaymentDetails{
			PaymentStatus: models.PaymentPending,
			EscrowStatus:  models.EscrowHeld,
		},
	}
	if err := s.db.WithContext(ctx).Create(&req).Error; err != nil {
		return nil, fmt.Errorf("create customization request: %w", err)
	}
	return &req, nil
}

// SubmitWork is the designer claiming the request (when unclaimed) and
// delivering the design for customer review.
func (s *Service) SubmitWork(ctx context.Context, designerUserID, requestID uint, finalFileURL, previewImageURL, notes string) (*models.CustomizationRequest, error) {
	var out models.CustomizationRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.CustomizationRequest
		if err := tx.First(&req, requestID).Error; err != nil {
			return err
		}
		if req.Status != models.RequestPendingDesignerReview {
			return fmt.Errorf("%w: cannot submit work from %s", ErrInvalidTransition, req.Status)
		}
		if req.DesignerID != nil && *req.DesignerID != designerUserID {
			return ErrNotAllowed
		}

		req.DesignerID = &designerUserID
		req.Status = models.RequestAwaitingCustomerApproval
		req.FinalFileURL = finalFileURL
		req.PreviewImageURL = previewImageURL
		req.DesignerNotes = notes
		if err := tx.Save(&req).Error; err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sendNotice(out.CustomerID, models.NotificationWorkSubmitted,
		"Design ready for review",
		fmt.Sprintf("Your designer submitted work for %s", label(&out)), out.ID)
	return &out, nil
}

// Approve moves the request to customer_approved, the milestone that makes
// the designer payout eligible for release.
func (s *Service) Approve(ctx context.Context, customerID, requestID uint) (*models.CustomizationRequest, error) {
	var out models.CustomizationRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.CustomizationRequest
		if err := tx.First(&req, requestID).Error; err != nil {
			return err
		}
		if req.CustomerID != customerID {
			return ErrNotAllowed
		}
		if req.Status != models.RequestAwaitingCustomerApproval {
			return fmt.Errorf("%w: cannot approve from %s", ErrInvalidTransition, req.Status)
		}
		req.Status = models.RequestCustomerApproved
		if err := tx.Save(&req).Error; err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.DesignerID != nil {
		s.sendNotice(*out.DesignerID, models.NotificationRequestApproved,
			"Design approved",
			fmt.Sprintf("The customer approved your design for %s", label(&out)), out.ID)
	}
	return &out, nil
}

// Reject sends the request back for another revision, or to the rejected
// terminal state once the revision budget is spent.
func (s *Service) Reject(ctx context.Context, customerID, requestID uint, reason string) (*models.CustomizationRequest, error) {
	var out models.CustomizationRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.CustomizationRequest
		if err := tx.First(&req, requestID).Error; err != nil {
			return err
		}
		if req.CustomerID != customerID {
			return ErrNotAllowed
		}
		if req.Status != models.RequestAwaitingCustomerApproval {
			return fmt.Errorf("%w: cannot reject from %s", ErrInvalidTransition, req.Status)
		}

		req.RevisionCount++
		req.RejectionReason = reason
		if req.RevisionCount >= MaxRevisions {
			req.Status = models.RequestRejected
		} else {
			req.Status = models.RequestPendingDesignerReview
		}
		if err := tx.Save(&req).Error; err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.DesignerID != nil {
		s.sendNotice(*out.DesignerID, models.NotificationRequestRejected,
			"Design rejected",
			fmt.Sprintf("The customer rejected the design for %s: %s", label(&out), reason), out.ID)
	}
	return &out, nil
}

// SetProductionPricing assigns the printing shop and finalizes the cost
// breakdown, moving the request to ready_for_production. The total is always
// recomputed from its parts.
func (s *Service) SetProductionPricing(ctx context.Context, shopID, requestID uint, productCost, printingCost float64) (*models.CustomizationRequest, error) {
	if productCost < 0 || printingCost < 0 {
		return nil, fmt.Errorf("customization: production costs must not be negative")
	}
	var out models.CustomizationRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.CustomizationRequest
		if err := tx.First(&req, requestID).Error; err != nil {
			return err
		}
		if req.Status != models.RequestCustomerApproved {
			return fmt.Errorf("%w: cannot price production from %s", ErrInvalidTransition, req.Status)
		}
		if req.Pricing == nil {
			return ErrNoPricing
		}

		pricing := *req.Pricing
		pricing.ProductCost = productCost
		pricing.PrintingCost = printingCost
		pricing.TotalCost = pricing.DesignFee + pricing.ProductCost + pricing.PrintingCost

		req.Pricing = &pricing
		req.PrintingShopID = &shopID
		req.Status = models.RequestReadyForProduction
		if err := tx.Save(&req).Error; err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sendNotice(out.CustomerID, models.NotificationProductionPriced,
		"Production priced",
		fmt.Sprintf("Production for %s is priced at %.2f", label(&out), out.Pricing.TotalCost), out.ID)
	return &out, nil
}

// StartProduction moves a priced request into production.
func (s *Service) StartProduction(ctx context.Context, shopID, requestID uint) (*models.CustomizationRequest, error) {
	return s.shopTransition(ctx, shopID, requestID,
		models.RequestReadyForProduction, models.RequestInProduction,
		models.NotificationProductionStarted, "Production started")
}

// CompleteProduction finishes the request. The shop payout becomes eligible
// from here.
func (s *Service) CompleteProduction(ctx context.Context, shopID, requestID uint) (*models.CustomizationRequest, error) {
	return s.shopTransition(ctx, shopID, requestID,
		models.RequestInProduction, models.RequestCompleted,
		models.NotificationRequestCompleted, "Order completed")
}

func (s *Service) shopTransition(ctx context.Context, shopID, requestID uint, from, to models.RequestStatus, notice models.NotificationType, title string) (*models.CustomizationRequest, error) {
	var out models.CustomizationRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.CustomizationRequest
		if err := tx.First(&req, requestID).Error; err != nil {
			return err
		}
		if req.PrintingShopID == nil || *req.PrintingShopID != shopID {
			return ErrNotAllowed
		}
		if req.Status != from {
			return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidTransition, req.Status, to)
		}
		req.Status = to
		if err := tx.Save(&req).Error; err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sendNotice(out.CustomerID, notice, title,
		fmt.Sprintf("%s for %s", title, label(&out)), out.ID)
	return &out, nil
}

// Cancel withdraws the request before production starts. A request that
// never saw a payment is removed outright; once money has been recorded the
// row is kept forever and only marked cancelled.
func (s *Service) Cancel(ctx context.Context, customerID, requestID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.CustomizationRequest
		if err := tx.First(&req, requestID).Error; err != nil {
			return err
		}
		if req.CustomerID != customerID {
			return ErrNotAllowed
		}
		if req.Status.IsTerminal() || req.Status == models.RequestInProduction {
			return fmt.Errorf("%w: cannot cancel from %s", ErrInvalidTransition, req.Status)
		}

		if len(req.Payment.Payments) == 0 && req.Payment.PaidAmount == 0 {
			return tx.Unscoped().Delete(&req).Error
		}

		req.Status = models.RequestCancelled
		return tx.Save(&req).Error
	})
}

// RecordPayment appends an immutable payment record and rolls the collected
// amount and payment status forward. Failed attempts are kept in the list.
func (s *Service) RecordPayment(ctx context.Context, requestID uint, rec models.PaymentRecord) (*models.CustomizationRequest, error) {
	var out models.CustomizationRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.CustomizationRequest
		if err := tx.First(&req, requestID).Error; err != nil {
			return err
		}
		if req.Status.IsTerminal() {
			return fmt.Errorf("%w: cannot record payment on %s", ErrInvalidTransition, req.Status)
		}

		req.Payment.Payments = append(req.Payment.Payments, rec)
		if rec.Status == models.PaymentRecordSuccess {
			req.Payment.PaidAmount += rec.Amount
			total := 0.0
			if req.Pricing != nil {
				total = req.Pricing.TotalCost
			}
			if total > 0 && req.Payment.PaidAmount >= total {
				req.Payment.PaymentStatus = models.PaymentFullyPaid
			} else {
				req.Payment.PaymentStatus = models.PaymentPartiallyPaid
			}
		}
		if err := tx.Save(&req).Error; err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	if rec.Status == models.PaymentRecordSuccess && out.DesignerID != nil {
		s.sendNotice(*out.DesignerID, models.NotificationPaymentReceived,
			"Payment received",
			fmt.Sprintf("A payment of %.2f was received for %s", rec.Amount, label(&out)), out.ID)
	}
	return &out, nil
}

func (s *Service) sendNotice(userID uint, t models.NotificationType, title, message string, requestID uint) {
	if s.notify == nil {
		return
	}
	err := s.notify.Notify(userID, t, title, message, map[string]any{"request_id": requestID})
	if err != nil {
		s.log.Warn("lifecycle notification failed",
			zap.Uint("user_id", userID), zap.String("type", string(t)), zap.Error(err))
	}
}

func label(req *models.CustomizationRequest) string {
	if req.ProductName != "" {
		return req.ProductName
	}
	return fmt.Sprintf("request #%d", req.ID)
}
