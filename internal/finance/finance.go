package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"Printly/internal/models"
	"Printly/internal/timeutil"
)

// Data sources the engine reads from. Declared here so callers can hand in
// the gorm repositories or test fakes.

type CustomizationSource interface {
	FindByDesigner(ctx context.Context, designerUserID uint) ([]models.CustomizationRequest, error)
	FindByShop(ctx context.Context, shopID uint) ([]models.CustomizationRequest, error)
}

type OrderSource interface {
	FindByBusinessOwner(ctx context.Context, ownerID uint) ([]models.Order, error)
}

type EarningsSource interface {
	FindByDesigner(ctx context.Context, designerProfileID uint) ([]models.DesignerEarning, error)
}

type ProfileSource interface {
	DesignerProfileByUserID(ctx context.Context, userID uint) (*models.DesignerProfile, error)
	ShopProfileByUserID(ctx context.Context, userID uint) (*models.ShopProfile, error)
}

type ProductSource interface {
	FindByID(ctx context.Context, id uint) (*models.Product, error)
}

// Settlement is the escrow component the history path leans on for
// repair-on-read and opportunistic release.
type Settlement interface {
	CanReleaseDesignerPayout(req *models.CustomizationRequest) bool
	CanReleaseShopPayout(req *models.CustomizationRequest) bool
	ReleaseDesignerPayout(ctx context.Context, requestID uint) (*models.CustomizationRequest, error)
	ReleaseShopPayout(ctx context.Context, requestID uint) (*models.CustomizationRequest, error)
	RepairPayoutState(ctx context.Context, req *models.CustomizationRequest) (bool, error)
}

// ErrUnsupportedRole is returned for roles the reporting layer does not
// serve.
var ErrUnsupportedRole = errors.New("finance: unsupported role")

// Service recomputes financial views from domain records on every call. It
// keeps no cache and never writes except through the settlement component.
type Service struct {
	customizations CustomizationSource
	orders         OrderSource
	earnings       EarningsSource
	profiles       ProfileSource
	products       ProductSource
	settlement     Settlement
	currency       string
	log            *zap.Logger
	now            func() time.Time
}

func NewService(
	customizations CustomizationSource,
	orders OrderSource,
	earnings EarningsSource,
	profiles ProfileSource,
	products ProductSource,
	settlement Settlement,
	currency string,
	log *zap.Logger,
) *Service {
	return &Service{
		customizations: customizations,
		orders:         orders,
		earnings:       earnings,
		profiles:       profiles,
		products:       products,
		settlement:     settlement,
		currency:       currency,
		log:            log,
		now:            time.Now,
	}
}

// ledgerEvent is the single normalized shape every money record is reduced
// to before aggregation. The identity keys (orderID/requestID) drive
// de-duplication; the effective date drives time bucketing.
type ledgerEvent struct {
	amount      float64
	effectiveAt *time.Time
	paid        bool // money settled vs still pending
	source      models.TransactionType
	itemName    string
	productID   *uint
}

func (e ledgerEvent) inRange(cutoff time.Time) bool {
	if cutoff.IsZero() {
		return true
	}
	return e.effectiveAt != nil && !e.effectiveAt.Before(cutoff)
}

// collectEvents loads all sources for the role and reduces them to ledger
// events. Secondary source failures are logged and contribute nothing.
func (s *Service) collectEvents(ctx context.Context, userID uint, role models.UserRole) ([]ledgerEvent, error) {
	switch role {
	case models.RoleDesigner:
		return s.collectDesignerEvents(ctx, userID)
	case models.RoleBusinessOwner:
		return s.collectOwnerEvents(ctx, userID)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRole, role)
	}
}

func (s *Service) collectDesignerEvents(ctx context.Context, userID uint) ([]ledgerEvent, error) {
	requests, err := s.customizations.FindByDesigner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load customization requests: %w", err)
	}

	// Earnings records and design orders are independent reads; the profile
	// lookup has to land before the earnings query it scopes.
	var (
		earnings     []models.DesignerEarning
		designOrders []models.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		profile, err := s.profiles.DesignerProfileByUserID(gctx, userID)
		if err != nil {
			s.log.Warn("designer profile lookup failed, skipping earnings records",
				zap.Uint("user_id", userID), zap.Error(err))
			return nil
		}
		records, err := s.earnings.FindByDesigner(gctx, profile.ID)
		if err != nil {
			s.log.Warn("earnings record lookup failed",
				zap.Uint("designer_id", profile.ID), zap.Error(err))
			return nil
		}
		earnings = records
		return nil
	})
	g.Go(func() error {
		orders, err := s.orders.FindByBusinessOwner(gctx, userID)
		if err != nil {
			s.log.Warn("design order lookup failed",
				zap.Uint("user_id", userID), zap.Error(err))
			return nil
		}
		for _, o := range orders {
			if o.IsDesignOnly() {
				designOrders = append(designOrders, o)
			}
		}
		return nil
	})
	_ = g.Wait()

	events := make([]ledgerEvent, 0, len(earnings)+len(designOrders)+len(requests))

	// Authoritative ledger records win over recomputing from the order, so
	// remember which orders they already cover.
	recorded := make(map[uint]bool, len(earnings))
	for _, rec := range earnings {
		recorded[rec.OrderID] = true
		events = append(events, ledgerEvent{
			amount:      rec.Amount,
			effectiveAt: timeutil.ToTime(rec.PaidAt),
			paid:        true,
			source:      models.TransactionOrder,
			itemName:    designOrderName(nil),
		})
	}

	for i := range designOrders {
		o := designOrders[i]
		if o.PaymentStatus == models.OrderPaymentPaid {
			if recorded[o.ID] {
				continue // already counted via its ledger record
			}
			// Legacy order predating ledger records: fall back to the order
			// itself, dated by its creation.
			created := o.CreatedAt
			events = append(events, ledgerEvent{
				amount:      o.TotalAmount,
				effectiveAt: &created,
				paid:        true,
				source:      models.TransactionOrder,
				itemName:    designOrderName(&o),
			})
		} else if o.PaymentStatus == models.OrderPaymentPending && o.Status != models.OrderCancelled {
			created := o.CreatedAt
			events = append(events, ledgerEvent{
				amount:      o.TotalAmount,
				effectiveAt: &created,
				paid:        false,
				source:      models.TransactionOrder,
				itemName:    designOrderName(&o),
			})
		}
	}

	for i := range requests {
		if ev, ok := s.classifyRequest(&requests[i], roleDesigner); ok {
			events = append(events, ev)
		}
	}
	return events, nil
}

func (s *Service) collectOwnerEvents(ctx context.Context, userID uint) ([]ledgerEvent, error) {
	orders, err := s.orders.FindByBusinessOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	var requests []models.CustomizationRequest
	profile, err := s.profiles.ShopProfileByUserID(ctx, userID)
	if err != nil {
		s.log.Warn("shop profile lookup failed, skipping customization revenue",
			zap.Uint("user_id", userID), zap.Error(err))
	} else {
		requests, err = s.customizations.FindByShop(ctx, profile.ID)
		if err != nil {
			s.log.Warn("shop customization lookup failed",
				zap.Uint("shop_id", profile.ID), zap.Error(err))
			requests = nil
		}
	}

	events := make([]ledgerEvent, 0, len(orders)+len(requests))
	for i := range orders {
		o := orders[i]
		if o.Status == models.OrderCancelled {
			continue
		}
		created := o.CreatedAt
		ev := ledgerEvent{
			amount:      o.TotalAmount,
			effectiveAt: &created,
			source:      models.TransactionOrder,
			itemName:    orderName(&o),
			productID:   orderProductID(&o),
		}
		// Revenue once delivered and paid, otherwise still in the pipeline.
		ev.paid = o.Status == models.OrderDelivered && o.PaymentStatus == models.OrderPaymentPaid
		events = append(events, ev)
	}

	for i := range requests {
		if ev, ok := s.classifyRequest(&requests[i], roleShop); ok {
			events = append(events, ev)
		}
	}
	return events, nil
}

type payoutRole int

const (
	roleDesigner payoutRole = iota
	roleShop
)

// classifyRequest reduces one customization request to at most one ledger
// event, in strict precedence order: payout recorded, customer paid, payment
// pipeline open, nothing.
func (s *Service) classifyRequest(req *models.CustomizationRequest, role payoutRole) (ledgerEvent, bool) {
	var (
		payoutAmount *float64
		paidAt       *time.Time
		value        float64
	)
	if role == roleDesigner {
		payoutAmount = req.Payment.DesignerPayoutAmount
		paidAt = req.Payment.DesignerPaidAt
		value = req.DesignerPayoutValue()
	} else {
		payoutAmount = req.Payment.ShopPayoutAmount
		paidAt = req.Payment.ShopPaidAt
		value = req.ShopPayoutValue()
	}

	ev := ledgerEvent{
		source:    models.TransactionCustomization,
		itemName:  req.ProductName,
		productID: req.ProductID,
	}

	switch {
	case payoutAmount != nil:
		// Money released. A missing paid-at stamp (pre-repair record) falls
		// back to the customer's payment date, then the request date.
		ev.amount = *payoutAmount
		ev.paid = true
		ev.effectiveAt = firstDate(paidAt, req.Payment.LatestSuccessfulPaymentAt(), &req.RequestedAt)
		return ev, true

	case req.Payment.HasSuccessfulPayment():
		// Customer money collected, escrow not released yet.
		ev.amount = value
		ev.paid = false
		ev.effectiveAt = firstDate(req.Payment.LatestSuccessfulPaymentAt(), &req.RequestedAt)
		return ev, true

	case req.Payment.HasPendingPayment():
		// A payment attempt is in flight; count it as pending pipeline.
		ev.amount = value
		ev.paid = false
		ev.effectiveAt = firstDate(&req.RequestedAt)
		return ev, true

	default:
		return ledgerEvent{}, false
	}
}

func firstDate(candidates ...*time.Time) *time.Time {
	for _, c := range candidates {
		if t := timeutil.ToTime(c); t != nil {
			return t
		}
	}
	return nil
}

func designOrderName(o *models.Order) string {
	if o == nil {
		return "Design sale"
	}
	for _, item := range o.Items {
		if item.DesignName != "" {
			return item.DesignName
		}
	}
	return "Design sale"
}

func orderName(o *models.Order) string {
	for _, item := range o.Items {
		if item.ProductName != "" {
			return item.ProductName
		}
		if item.DesignName != "" {
			return item.DesignName
		}
	}
	return ""
}

func orderProductID(o *models.Order) *uint {
	for _, item := range o.Items {
		if item.ProductID != nil {
			return item.ProductID
		}
	}
	return nil
}
