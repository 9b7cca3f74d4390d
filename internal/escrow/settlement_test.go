package escrow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"Printly/internal/models"
	"Printly/internal/testutil"
)

func newTestService(t *testing.T, cfg Config) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	return NewService(db, cfg, zap.NewNop()), db
}

func seedRequest(t *testing.T, db *gorm.DB, mutate func(*models.CustomizationRequest)) *models.CustomizationRequest {
	t.Helper()
	designerID := uint(7)
	shopID := uint(3)
	req := &models.CustomizationRequest{
		CustomerID:     1,
		DesignerID:     &designerID,
		PrintingShopID: &shopID,
		ProductName:    "Custom Mug",
		Status:         models.RequestCustomerApproved,
		Pricing: &models.PricingAgreement{
			DesignFee:    100,
			ProductCost:  40,
			PrintingCost: 10,
			TotalCost:    150,
		},
		Payment: models.PaymentDetails{
			PaymentStatus: models.PaymentFullyPaid,
			PaidAmount:    150,
			EscrowStatus:  models.EscrowHeld,
		},
	}
	if mutate != nil {
		mutate(req)
	}
	require.NoError(t, db.Create(req).Error)
	return req
}

func TestCanReleaseDesignerPayout(t *testing.T) {
	svc, db := newTestService(t, Config{})

	t.Run("eligible when approved and held", func(t *testing.T) {
		req := seedRequest(t, db, nil)
		assert.True(t, svc.CanReleaseDesignerPayout(req))
	})

	t.Run("eligible when ready for production", func(t *testing.T) {
		req := seedRequest(t, db, func(r *models.CustomizationRequest) {
			r.Status = models.RequestReadyForProduction
		})
		assert.True(t, svc.CanReleaseDesignerPayout(req))
	})

	t.Run("not eligible before approval", func(t *testing.T) {
		req := seedRequest(t, db, func(r *models.CustomizationRequest) {
			r.Status = models.RequestAwaitingCustomerApproval
		})
		assert.False(t, svc.CanReleaseDesignerPayout(req))
	})

	t.Run("not eligible when escrow already advanced", func(t *testing.T) {
		req := seedRequest(t, db, func(r *models.CustomizationRequest) {
			r.Payment.EscrowStatus = models.EscrowDesignerPaid
		})
		assert.False(t, svc.CanReleaseDesignerPayout(req))
	})

	t.Run("not eligible without pricing", func(t *testing.T) {
		req := seedRequest(t, db, func(r *models.CustomizationRequest) {
			r.Pricing = nil
		})
		assert.False(t, svc.CanReleaseDesignerPayout(req))
	})

	t.Run("not eligible without designer", func(t *testing.T) {
		req := seedRequest(t, db, func(r *models.CustomizationRequest) {
			r.DesignerID = nil
		})
		assert.False(t, svc.CanReleaseDesignerPayout(req))
	})

	t.Run("not eligible when payout already recorded", func(t *testing.T) {
		amount := 100.0
		paidAt := time.Now()
		req := seedRequest(t, db, func(r *models.CustomizationRequest) {
			r.Payment.DesignerPayoutAmount = &amount
			r.Payment.DesignerPaidAt = &paidAt
			r.Payment.EscrowStatus = models.EscrowDesignerPaid
		})
		assert.False(t, svc.CanReleaseDesignerPayout(req))
	})
}

func TestReleaseDesignerPayout(t *testing.T) {
	svc, db := newTestService(t, Config{})
	req := seedRequest(t, db, nil)

	released, err := svc.ReleaseDesignerPayout(context.Background(), req.ID)
	require.NoError(t, err)

	require.NotNil(t, released.Payment.DesignerPayoutAmount)
	assert.Equal(t, 100.0, *released.Payment.DesignerPayoutAmount)
	require.NotNil(t, released.Payment.DesignerPaidAt)
	assert.NotEmpty(t, released.Payment.DesignerPayoutID)
	assert.Equal(t, models.EscrowDesignerPaid, released.Payment.EscrowStatus)

	var stored models.CustomizationRequest
	require.NoError(t, db.First(&stored, req.ID).Error)
	require.NotNil(t, stored.Payment.DesignerPayoutAmount)
	assert.Equal(t, 100.0, *stored.Payment.DesignerPayoutAmount)
	assert.Equal(t, models.EscrowDesignerPaid, stored.Payment.EscrowStatus)
}

func TestReleaseDesignerPayoutAppliesFeeRate(t *testing.T) {
	svc, db := newTestService(t, Config{PlatformFeeRate: 0.1})
	req := seedRequest(t, db, nil)

	released, err := svc.ReleaseDesignerPayout(context.Background(), req.ID)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, *released.Payment.DesignerPayoutAmount, 0.001)
}

func TestReleaseDesignerPayoutTwiceFails(t *testing.T) {
	svc, db := newTestService(t, Config{})
	req := seedRequest(t, db, nil)

	_, err := svc.ReleaseDesignerPayout(context.Background(), req.ID)
	require.NoError(t, err)

	_, err = svc.ReleaseDesignerPayout(context.Background(), req.ID)
	assert.ErrorIs(t, err, ErrAlreadyReleased)

	// Amount untouched by the failed second attempt.
	var stored models.CustomizationRequest
	require.NoError(t, db.First(&stored, req.ID).Error)
	assert.Equal(t, 100.0, *stored.Payment.DesignerPayoutAmount)
}

func TestReleaseDesignerPayoutNotEligible(t *testing.T) {
	svc, db := newTestService(t, Config{})

	req := seedRequest(t, db, func(r *models.CustomizationRequest) {
		r.Status = models.RequestPendingDesignerReview
	})
	_, err := svc.ReleaseDesignerPayout(context.Background(), req.ID)
	assert.ErrorIs(t, err, ErrNotEligible)

	noPricing := seedRequest(t, db, func(r *models.CustomizationRequest) {
		r.Pricing = nil
	})
	_, err = svc.ReleaseDesignerPayout(context.Background(), noPricing.ID)
	assert.ErrorIs(t, err, ErrNoPricing)
}

func TestReleaseShopPayout(t *testing.T) {
	svc, db := newTestService(t, Config{})

	t.Run("from held", func(t *testing.T) {
		req := seedRequest(t, db, func(r *models.CustomizationRequest) {
			r.Status = models.RequestCompleted
		})
		released, err := svc.ReleaseShopPayout(context.Background(), req.ID)
		require.NoError(t, err)
		assert.Equal(t, 50.0, *released.Payment.ShopPayoutAmount)
		assert.Equal(t, models.EscrowShopPaid, released.Payment.EscrowStatus)
	})

	t.Run("after designer paid moves to released", func(t *testing.T) {
		amount := 100.0
		paidAt := time.Now()
		req := seedRequest(t, db, func(r *models.CustomizationRequest) {
			r.Status = models.RequestCompleted
			r.Payment.DesignerPayoutAmount = &amount
			r.Payment.DesignerPaidAt = &paidAt
			r.Payment.EscrowStatus = models.EscrowDesignerPaid
		})
		released, err := svc.ReleaseShopPayout(context.Background(), req.ID)
		require.NoError(t, err)
		assert.Equal(t, models.EscrowReleased, released.Payment.EscrowStatus)
	})

	t.Run("not eligible before completion", func(t *testing.T) {
		req := seedRequest(t, db, func(r *models.CustomizationRequest) {
			r.Status = models.RequestInProduction
		})
		_, err := svc.ReleaseShopPayout(context.Background(), req.ID)
		assert.ErrorIs(t, err, ErrNotEligible)
	})
}

func TestRepairPayoutStateIsIdempotent(t *testing.T) {
	svc, db := newTestService(t, Config{})

	// A partially-applied release: amount recorded, status and stamp missing.
	amount := 100.0
	req := seedRequest(t, db, func(r *models.CustomizationRequest) {
		r.Payment.DesignerPayoutAmount = &amount
		r.Payment.DesignerPaidAt = nil
		r.Payment.EscrowStatus = models.EscrowHeld
	})

	changed, err := svc.RepairPayoutState(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.EscrowDesignerPaid, req.Payment.EscrowStatus)
	require.NotNil(t, req.Payment.DesignerPaidAt)
	assert.Equal(t, 100.0, *req.Payment.DesignerPayoutAmount)

	firstPaidAt := *req.Payment.DesignerPaidAt

	// Second run is a no-op over the repaired record.
	var reloaded models.CustomizationRequest
	require.NoError(t, db.First(&reloaded, req.ID).Error)
	changed, err = svc.RepairPayoutState(context.Background(), &reloaded)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, models.EscrowDesignerPaid, reloaded.Payment.EscrowStatus)
	assert.Equal(t, 100.0, *reloaded.Payment.DesignerPayoutAmount)
	assert.WithinDuration(t, firstPaidAt, *reloaded.Payment.DesignerPaidAt, time.Second)
}

func TestRepairPayoutStateNoopOnHealthyRecord(t *testing.T) {
	svc, db := newTestService(t, Config{})
	req := seedRequest(t, db, nil)

	changed, err := svc.RepairPayoutState(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, models.EscrowHeld, req.Payment.EscrowStatus)
}
