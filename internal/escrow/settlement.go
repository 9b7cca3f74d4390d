package escrow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"Printly/internal/models"
)

var (
	// ErrNotEligible means release conditions are not met yet (wrong status,
	// escrow not held, designer/shop unassigned).
	ErrNotEligible = errors.New("escrow: payout not eligible for release")
	// ErrNoPricing means the request has no pricing agreement to pay out from.
	ErrNoPricing = errors.New("escrow: request has no pricing agreement")
	// ErrAlreadyReleased means a payout was already recorded. Releasing twice
	// is a programming error, never silently repeated.
	ErrAlreadyReleased = errors.New("escrow: payout already released")
)

// Config carries the payout policy. A platform fee rate of 0.1 pays the
// designer 90% of the agreed design fee.
type Config struct {
	PlatformFeeRate float64
}

// Service owns the rules for releasing held funds once a request passes its
// approval milestones, and for repairing partially-applied payout writes.
type Service struct {
	db  *gorm.DB
	cfg Config
	log *zap.Logger
}

func NewService(db *gorm.DB, cfg Config, log *zap.Logger) *Service {
	return &Service{db: db, cfg: cfg, log: log}
}

// DesignerPayoutAmount applies the configured fee policy to the design fee.
func (s *Service) DesignerPayoutAmount(req *models.CustomizationRequest) float64 {
	if req.Pricing == nil {
		return 0
	}
	return req.Pricing.DesignFee * (1 - s.cfg.PlatformFeeRate)
}

// ShopPayoutAmount is the production share: product cost plus printing cost.
func (s *Service) ShopPayoutAmount(req *models.CustomizationRequest) float64 {
	if req.Pricing == nil {
		return 0
	}
	return req.Pricing.ProductCost + req.Pricing.PrintingCost
}

// CanReleaseDesignerPayout reports whether the designer's share may be
// released: work approved (or further along), escrow still held, pricing
// agreed, a designer assigned, and no payout recorded yet.
func (s *Service) CanReleaseDesignerPayout(req *models.CustomizationRequest) bool {
	if req.Status != models.RequestCustomerApproved && req.Status != models.RequestReadyForProduction {
		return false
	}
	if req.Payment.EscrowStatus != models.EscrowHeld {
		return false
	}
	if !req.HasPricing() || req.DesignerID == nil {
		return false
	}
	return req.Payment.DesignerPayoutAmount == nil
}

// CanReleaseShopPayout reports whether the shop's share may be released:
// production finished, escrow not already past the shop milestone, pricing
// agreed, a shop assigned, and no shop payout recorded yet.
func (s *Service) CanReleaseShopPayout(req *models.CustomizationRequest) bool {
	if req.Status != models.RequestCompleted {
		return false
	}
	if req.Payment.EscrowStatus != models.EscrowHeld && req.Payment.EscrowStatus != models.EscrowDesignerPaid {
		return false
	}
	if !req.HasPricing() || req.PrintingShopID == nil {
		return false
	}
	return req.Payment.ShopPayoutAmount == nil
}

// ReleaseDesignerPayout atomically records the designer payout on the
// request. The guard is re-checked inside the transaction with a conditional
// update, so two concurrent callers cannot both release.
func (s *Service) ReleaseDesignerPayout(ctx context.Context, requestID uint) (*models.CustomizationRequest, error) {
	var released models.CustomizationRequest

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.CustomizationRequest
		if err := tx.First(&req, requestID).Error; err != nil {
			return fmt.Errorf("load request %d: %w", requestID, err)
		}

		if req.Payment.DesignerPayoutAmount != nil {
			return ErrAlreadyReleased
		}
		if !req.HasPricing() {
			return ErrNoPricing
		}
		if !s.CanReleaseDesignerPayout(&req) {
			return ErrNotEligible
		}

		amount := s.DesignerPayoutAmount(&req)
		now := time.Now()
		payoutID := uuid.NewString()

		result := tx.Model(&models.CustomizationRequest{}).
			Where("id = ? AND escrow_status = ? AND designer_payout_amount IS NULL",
				req.ID, models.EscrowHeld).
			Updates(map[string]any{
				"designer_payout_amount": amount,
				"designer_paid_at":       now,
				"designer_payout_id":     payoutID,
				"escrow_status":          models.EscrowDesignerPaid,
			})
		if result.Error != nil {
			return fmt.Errorf("release designer payout for request %d: %w", req.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			// Lost the race to another caller.
			return ErrAlreadyReleased
		}

		req.Payment.DesignerPayoutAmount = &amount
		req.Payment.DesignerPaidAt = &now
		req.Payment.DesignerPayoutID = payoutID
		req.Payment.EscrowStatus = models.EscrowDesignerPaid
		released = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("designer payout released",
		zap.Uint("request_id", released.ID),
		zap.Float64("amount", *released.Payment.DesignerPayoutAmount))
	return &released, nil
}

// ReleaseShopPayout atomically records the printing shop payout. When the
// designer was already paid the escrow moves to fully released.
func (s *Service) ReleaseShopPayout(ctx context.Context, requestID uint) (*models.CustomizationRequest, error) {
	var released models.CustomizationRequest

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.CustomizationRequest
		if err := tx.First(&req, requestID).Error; err != nil {
			return fmt.Errorf("load request %d: %w", requestID, err)
		}

		if req.Payment.ShopPayoutAmount != nil {
			return ErrAlreadyReleased
		}
		if !req.HasPricing() {
			return ErrNoPricing
		}
		if !s.CanReleaseShopPayout(&req) {
			return ErrNotEligible
		}

		next := models.EscrowShopPaid
		if req.Payment.EscrowStatus == models.EscrowDesignerPaid {
			next = models.EscrowReleased
		}

		amount := s.ShopPayoutAmount(&req)
		now := time.Now()
		payoutID := uuid.NewString()

		result := tx.Model(&models.CustomizationRequest{}).
			Where("id = ? AND escrow_status = ? AND shop_payout_amount IS NULL",
				req.ID, req.Payment.EscrowStatus).
			Updates(map[string]any{
				"shop_payout_amount": amount,
				"shop_paid_at":       now,
				"shop_payout_id":     payoutID,
				"escrow_status":      next,
			})
		if result.Error != nil {
			return fmt.Errorf("release shop payout for request %d: %w", req.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyReleased
		}

		req.Payment.ShopPayoutAmount = &amount
		req.Payment.ShopPaidAt = &now
		req.Payment.ShopPayoutID = payoutID
		req.Payment.EscrowStatus = next
		released = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("shop payout released",
		zap.Uint("request_id", released.ID),
		zap.Float64("amount", *released.Payment.ShopPayoutAmount))
	return &released, nil
}

// RepairPayoutState fixes a partially-applied payout write: an amount was
// recorded but the escrow status or paid-at stamp never landed. The record is
// repaired in place without touching the amount; running it again is a no-op.
// The passed request is updated to the repaired state.
func (s *Service) RepairPayoutState(ctx context.Context, req *models.CustomizationRequest) (bool, error) {
	patch := map[string]any{}

	if req.Payment.DesignerPayoutAmount != nil {
		if req.Payment.EscrowStatus == models.EscrowHeld {
			patch["escrow_status"] = models.EscrowDesignerPaid
		}
		if req.Payment.DesignerPaidAt == nil {
			patch["designer_paid_at"] = s.backfillDate(req)
		}
	}
	if req.Payment.ShopPayoutAmount != nil && req.Payment.ShopPaidAt == nil {
		patch["shop_paid_at"] = s.backfillDate(req)
	}

	if len(patch) == 0 {
		return false, nil
	}

	err := s.db.WithContext(ctx).
		Model(&models.CustomizationRequest{}).
		Where("id = ?", req.ID).
		Updates(patch).Error
	if err != nil {
		return false, fmt.Errorf("repair payout state for request %d: %w", req.ID, err)
	}

	if v, ok := patch["escrow_status"]; ok {
		req.Payment.EscrowStatus = v.(models.EscrowStatus)
	}
	if v, ok := patch["designer_paid_at"]; ok {
		t := v.(time.Time)
		req.Payment.DesignerPaidAt = &t
	}
	if v, ok := patch["shop_paid_at"]; ok {
		t := v.(time.Time)
		req.Payment.ShopPaidAt = &t
	}

	s.log.Warn("repaired inconsistent payout state", zap.Uint("request_id", req.ID))
	return true, nil
}

func (s *Service) backfillDate(req *models.CustomizationRequest) time.Time {
	if paid := req.Payment.LatestSuccessfulPaymentAt(); paid != nil {
		return *paid
	}
	return time.Now()
}
