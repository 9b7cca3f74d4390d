package customization

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

type recordingNotifier struct {
	types []models.NotificationType
	users []uint
}

func (n *recordingNotifier) Notify(userID uint, t models.NotificationType, _, _ string, _ map[string]any) error {
	n.users = append(n.users, userID)
	n.types = append(n.types, t)
	return nil
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *recordingNotifier) {
	t.Helper()
	db := testutil.NewTestDB(t)
	notifier := &recordingNotifier{}
	return NewService(db, notifier, zap.NewNop()), db, notifier
}

const (
	customerID = uint(1)
	designerID = uint(2)
	shopID     = uint(3)
)

func createRequest(t *testing.T, svc *Service) *models.CustomizationRequest {
	t.Helper()
	req, err := svc.Create(context.Background(), CreateInput{
		CustomerID:  customerID,
		ProductName: "Custom Hoodie",
		Brief:       "Front chest print, two colors",
		DesignFee:   100,
	})
	require.NoError(t, err)
	return req
}

// Drives a fresh request to the given status through the public transitions.
func advanceTo(t *testing.T, svc *Service, status models.RequestStatus) *models.CustomizationRequest {
	t.Helper()
	ctx := context.Background()
	req := createRequest(t, svc)
	if status == models.RequestPendingDesignerReview {
		return req
	}

	req, err := svc.SubmitWork(ctx, designerID, req.ID, "https://cdn/final.pdf", "https://cdn/preview.png", "v1")
	require.NoError(t, err)
	if status == models.RequestAwaitingCustomerApproval {
		return req
	}

	req, err = svc.Approve(ctx, customerID, req.ID)
	require.NoError(t, err)
	if status == models.RequestCustomerApproved {
		return req
	}

	req, err = svc.SetProductionPricing(ctx, shopID, req.ID, 40, 10)
	require.NoError(t, err)
	if status == models.RequestReadyForProduction {
		return req
	}

	req, err = svc.StartProduction(ctx, shopID, req.ID)
	require.NoError(t, err)
	if status == models.RequestInProduction {
		return req
	}

	req, err = svc.CompleteProduction(ctx, shopID, req.ID)
	require.NoError(t, err)
	require.Equal(t, status, req.Status)
	return req
}

func TestCreate(t *testing.T) {
	svc, db, _ := newTestService(t)
	req := createRequest(t, svc)

	assert.Equal(t, models.RequestPendingDesignerReview, req.Status)
	assert.Equal(t, models.EscrowHeld, req.Payment.EscrowStatus)
	require.NotNil(t, req.Pricing)
	assert.Equal(t, 100.0, req.Pricing.DesignFee)
	assert.Equal(t, 100.0, req.Pricing.TotalCost)
	assert.False(t, req.RequestedAt.IsZero())

	var stored models.CustomizationRequest
	require.NoError(t, db.First(&stored, req.ID).Error)
	assert.Equal(t, models.RequestPendingDesignerReview, stored.Status)

	_, err := svc.Create(context.Background(), CreateInput{CustomerID: customerID, DesignFee: -1})
	assert.Error(t, err)
}

func TestFullLifecycle(t *testing.T) {
	svc, _, notifier := newTestService(t)
	req := advanceTo(t, svc, models.RequestCompleted)

	assert.Equal(t, models.RequestCompleted, req.Status)
	require.NotNil(t, req.DesignerID)
	assert.Equal(t, designerID, *req.DesignerID)
	require.NotNil(t, req.PrintingShopID)
	assert.Equal(t, shopID, *req.PrintingShopID)

	// Total is always recomputed from its parts.
	require.NotNil(t, req.Pricing)
	assert.Equal(t, 150.0, req.Pricing.TotalCost)

	assert.Equal(t, []models.NotificationType{
		models.NotificationWorkSubmitted,
		models.NotificationRequestApproved,
		models.NotificationProductionPriced,
		models.NotificationProductionStarted,
		models.NotificationRequestCompleted,
	}, notifier.types)
}

func TestSubmitWorkClaimsRequest(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	req := createRequest(t, svc)

	out, err := svc.SubmitWork(ctx, designerID, req.ID, "https://cdn/final.pdf", "", "")
	require.NoError(t, err)
	require.NotNil(t, out.DesignerID)
	assert.Equal(t, designerID, *out.DesignerID)
	assert.Equal(t, models.RequestAwaitingCustomerApproval, out.Status)

	// Re-submission after a rejection must come from the same designer.
	out, err = svc.Reject(ctx, customerID, req.ID, "wrong colors")
	require.NoError(t, err)
	require.Equal(t, models.RequestPendingDesignerReview, out.Status)

	_, err = svc.SubmitWork(ctx, uint(99), req.ID, "https://cdn/other.pdf", "", "")
	assert.ErrorIs(t, err, ErrNotAllowed)
}

func TestInvalidTransitions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	t.Run("submit from approved", func(t *testing.T) {
		req := advanceTo(t, svc, models.RequestCustomerApproved)
		_, err := svc.SubmitWork(ctx, designerID, req.ID, "u", "", "")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("approve before submission", func(t *testing.T) {
		req := createRequest(t, svc)
		_, err := svc.Approve(ctx, customerID, req.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("approve by stranger", func(t *testing.T) {
		req := advanceTo(t, svc, models.RequestAwaitingCustomerApproval)
		_, err := svc.Approve(ctx, uint(99), req.ID)
		assert.ErrorIs(t, err, ErrNotAllowed)
	})

	t.Run("price production before approval", func(t *testing.T) {
		req := advanceTo(t, svc, models.RequestAwaitingCustomerApproval)
		_, err := svc.SetProductionPricing(ctx, shopID, req.ID, 40, 10)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("start production before pricing", func(t *testing.T) {
		req := advanceTo(t, svc, models.RequestCustomerApproved)
		_, err := svc.StartProduction(ctx, shopID, req.ID)
		assert.ErrorIs(t, err, ErrNotAllowed) // no shop assigned yet
	})

	t.Run("start production by wrong shop", func(t *testing.T) {
		req := advanceTo(t, svc, models.RequestReadyForProduction)
		_, err := svc.StartProduction(ctx, uint(99), req.ID)
		assert.ErrorIs(t, err, ErrNotAllowed)
	})

	t.Run("complete before starting", func(t *testing.T) {
		req := advanceTo(t, svc, models.RequestReadyForProduction)
		_, err := svc.CompleteProduction(ctx, shopID, req.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestRejectConsumesRevisionBudget(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	req := createRequest(t, svc)

	for i := 1; i < MaxRevisions; i++ {
		_, err := svc.SubmitWork(ctx, designerID, req.ID, "https://cdn/final.pdf", "", "")
		require.NoError(t, err)
		out, err := svc.Reject(ctx, customerID, req.ID, "again")
		require.NoError(t, err)
		assert.Equal(t, i, out.RevisionCount)
		assert.Equal(t, models.RequestPendingDesignerReview, out.Status)
	}

	_, err := svc.SubmitWork(ctx, designerID, req.ID, "https://cdn/final.pdf", "", "")
	require.NoError(t, err)
	out, err := svc.Reject(ctx, customerID, req.ID, "final no")
	require.NoError(t, err)
	assert.Equal(t, MaxRevisions, out.RevisionCount)
	assert.Equal(t, models.RequestRejected, out.Status)
	assert.Equal(t, "final no", out.RejectionReason)

	// Terminal: no more submissions.
	_, err = svc.SubmitWork(ctx, designerID, req.ID, "https://cdn/final.pdf", "", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancel(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	t.Run("unpaid request is removed outright", func(t *testing.T) {
		req := createRequest(t, svc)
		require.NoError(t, svc.Cancel(ctx, customerID, req.ID))

		var count int64
		require.NoError(t, db.Unscoped().Model(&models.CustomizationRequest{}).
			Where("id = ?", req.ID).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("paid request is only marked cancelled", func(t *testing.T) {
		req := createRequest(t, svc)
		now := time.Now()
		_, err := svc.RecordPayment(ctx, req.ID, models.PaymentRecord{
			ID: "pay-1", Amount: 40, Status: models.PaymentRecordSuccess, PaidAt: &now,
		})
		require.NoError(t, err)

		require.NoError(t, svc.Cancel(ctx, customerID, req.ID))

		var stored models.CustomizationRequest
		require.NoError(t, db.First(&stored, req.ID).Error)
		assert.Equal(t, models.RequestCancelled, stored.Status)
		assert.Equal(t, 40.0, stored.Payment.PaidAmount)
	})

	t.Run("blocked once production started", func(t *testing.T) {
		req := advanceTo(t, svc, models.RequestInProduction)
		err := svc.Cancel(ctx, customerID, req.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("only the customer may cancel", func(t *testing.T) {
		req := createRequest(t, svc)
		err := svc.Cancel(ctx, uint(99), req.ID)
		assert.ErrorIs(t, err, ErrNotAllowed)
	})
}

func TestRecordPayment(t *testing.T) {
	svc, _, notifier := newTestService(t)
	ctx := context.Background()
	now := time.Now()

	req := advanceTo(t, svc, models.RequestAwaitingCustomerApproval)

	// Failed attempt is kept but moves nothing.
	out, err := svc.RecordPayment(ctx, req.ID, models.PaymentRecord{
		ID: "pay-fail", Amount: 100, Status: models.PaymentRecordFailed, PaidAt: &now,
	})
	require.NoError(t, err)
	assert.Zero(t, out.Payment.PaidAmount)
	assert.Equal(t, models.PaymentPending, out.Payment.PaymentStatus)

	// Partial success.
	out, err = svc.RecordPayment(ctx, req.ID, models.PaymentRecord{
		ID: "pay-1", Amount: 60, Status: models.PaymentRecordSuccess, PaidAt: &now,
	})
	require.NoError(t, err)
	assert.Equal(t, 60.0, out.Payment.PaidAmount)
	assert.Equal(t, models.PaymentPartiallyPaid, out.Payment.PaymentStatus)

	// Remainder settles the invoice.
	out, err = svc.RecordPayment(ctx, req.ID, models.PaymentRecord{
		ID: "pay-2", Amount: 40, Status: models.PaymentRecordSuccess, PaidAt: &now,
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, out.Payment.PaidAmount)
	assert.Equal(t, models.PaymentFullyPaid, out.Payment.PaymentStatus)
	assert.Len(t, out.Payment.Payments, 3)

	// Designer heard about both successes, not the failure.
	paymentNotices := 0
	for _, typ := range notifier.types {
		if typ == models.NotificationPaymentReceived {
			paymentNotices++
		}
	}
	assert.Equal(t, 2, paymentNotices)

	// Terminal requests accept no further payments.
	done := advanceTo(t, svc, models.RequestCompleted)
	_, err = svc.RecordPayment(ctx, done.ID, models.PaymentRecord{
		ID: "pay-late", Amount: 10, Status: models.PaymentRecordSuccess, PaidAt: &now,
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
