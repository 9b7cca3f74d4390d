package finance

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"Printly/internal/models"
	"Printly/internal/timeutil"
)

// GetPaymentHistory produces the flat, filterable transaction listing: one
// row per underlying payment, payout or order event. Before emitting
// customization rows the engine repairs inconsistent payout records and,
// best-effort, releases any payout that became eligible; a failed release is
// logged and never aborts the listing.
func (s *Service) GetPaymentHistory(ctx context.Context, userID uint, role models.UserRole, filter models.HistoryFilter) ([]models.PaymentTransaction, error) {
	var (
		rows []models.PaymentTransaction
		err  error
	)
	switch role {
	case models.RoleDesigner:
		rows, err = s.designerHistory(ctx, userID)
	case models.RoleBusinessOwner:
		rows, err = s.ownerHistory(ctx, userID)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRole, role)
	}
	if err != nil {
		return nil, err
	}

	rows = applyFilter(rows, filter)
	sortByPaidAtDesc(rows)
	return rows, nil
}

func (s *Service) designerHistory(ctx context.Context, userID uint) ([]models.PaymentTransaction, error) {
	requests, err := s.customizations.FindByDesigner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load customization requests: %w", err)
	}

	var rows []models.PaymentTransaction
	for i := range requests {
		req := s.healAndRelease(ctx, &requests[i], roleDesigner)
		rows = append(rows, customerPaymentRows(req)...)
		if req.Payment.DesignerPayoutAmount != nil {
			rows = append(rows, payoutRow(req, roleDesigner))
		}
	}

	recorded := make(map[uint]bool)
	if profile, err := s.profiles.DesignerProfileByUserID(ctx, userID); err != nil {
		s.log.Warn("designer profile lookup failed, skipping earnings rows",
			zap.Uint("user_id", userID), zap.Error(err))
	} else if earnings, err := s.earnings.FindByDesigner(ctx, profile.ID); err != nil {
		s.log.Warn("earnings record lookup failed",
			zap.Uint("designer_id", profile.ID), zap.Error(err))
	} else {
		for _, rec := range earnings {
			recorded[rec.OrderID] = true
			rows = append(rows, models.PaymentTransaction{
				ID:          fmt.Sprintf("earning-%d", rec.ID),
				Type:        models.TransactionOrder,
				ReferenceID: rec.OrderID,
				Amount:      rec.Amount,
				Status:      models.TransactionSuccess,
				PaidAt:      timeutil.ToTime(rec.PaidAt),
				Description: "Design sale payout",
			})
		}
	}

	orders, err := s.orders.FindByBusinessOwner(ctx, userID)
	if err != nil {
		s.log.Warn("design order lookup failed", zap.Uint("user_id", userID), zap.Error(err))
		return rows, nil
	}
	for i := range orders {
		o := orders[i]
		if !o.IsDesignOnly() || recorded[o.ID] {
			continue
		}
		rows = append(rows, orderRow(&o))
	}
	return rows, nil
}

func (s *Service) ownerHistory(ctx context.Context, userID uint) ([]models.PaymentTransaction, error) {
	orders, err := s.orders.FindByBusinessOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	var rows []models.PaymentTransaction
	for i := range orders {
		rows = append(rows, orderRow(&orders[i]))
	}

	profile, err := s.profiles.ShopProfileByUserID(ctx, userID)
	if err != nil {
		s.log.Warn("shop profile lookup failed, skipping customization rows",
			zap.Uint("user_id", userID), zap.Error(err))
		return rows, nil
	}
	requests, err := s.customizations.FindByShop(ctx, profile.ID)
	if err != nil {
		s.log.Warn("shop customization lookup failed",
			zap.Uint("shop_id", profile.ID), zap.Error(err))
		return rows, nil
	}
	for i := range requests {
		req := s.healAndRelease(ctx, &requests[i], roleShop)
		rows = append(rows, customerPaymentRows(req)...)
		if req.Payment.ShopPayoutAmount != nil {
			rows = append(rows, payoutRow(req, roleShop))
		}
	}
	return rows, nil
}

// healAndRelease runs the repair-on-read rule and then a single best-effort
// release attempt. Failures are logged and the unmodified request is used; a
// later poll will retry.
func (s *Service) healAndRelease(ctx context.Context, req *models.CustomizationRequest, role payoutRole) *models.CustomizationRequest {
	if _, err := s.settlement.RepairPayoutState(ctx, req); err != nil {
		s.log.Warn("payout state repair failed",
			zap.Uint("request_id", req.ID), zap.Error(err))
	}

	switch role {
	case roleDesigner:
		if s.settlement.CanReleaseDesignerPayout(req) {
			released, err := s.settlement.ReleaseDesignerPayout(ctx, req.ID)
			if err != nil {
				s.log.Warn("opportunistic designer payout release failed",
					zap.Uint("request_id", req.ID), zap.Error(err))
				return req
			}
			released.Customer = req.Customer
			return released
		}
	case roleShop:
		if s.settlement.CanReleaseShopPayout(req) {
			released, err := s.settlement.ReleaseShopPayout(ctx, req.ID)
			if err != nil {
				s.log.Warn("opportunistic shop payout release failed",
					zap.Uint("request_id", req.ID), zap.Error(err))
				return req
			}
			released.Customer = req.Customer
			return released
		}
	}
	return req
}

func customerPaymentRows(req *models.CustomizationRequest) []models.PaymentTransaction {
	rows := make([]models.PaymentTransaction, 0, len(req.Payment.Payments))
	for _, rec := range req.Payment.Payments {
		rows = append(rows, models.PaymentTransaction{
			ID:            rec.ID,
			Type:          models.TransactionCustomization,
			ReferenceID:   req.ID,
			Amount:        rec.Amount,
			Status:        models.TransactionStatus(rec.Status),
			PaidAt:        timeutil.ToTime(rec.PaidAt),
			PaymentMethod: rec.PaymentMethod,
			InvoiceURL:    rec.InvoiceURL,
			Description:   fmt.Sprintf("Customer payment for %s", requestLabel(req)),
			CustomerName:  req.Customer.FullName,
			ProductName:   req.ProductName,
		})
	}
	return rows
}

func payoutRow(req *models.CustomizationRequest, role payoutRole) models.PaymentTransaction {
	row := models.PaymentTransaction{
		Type:         models.TransactionCustomization,
		ReferenceID:  req.ID,
		Status:       models.TransactionSuccess,
		CustomerName: req.Customer.FullName,
		ProductName:  req.ProductName,
	}
	if role == roleDesigner {
		row.ID = req.Payment.DesignerPayoutID
		if row.ID == "" {
			row.ID = fmt.Sprintf("designer-payout-%d", req.ID)
		}
		row.Amount = *req.Payment.DesignerPayoutAmount
		row.PaidAt = timeutil.ToTime(req.Payment.DesignerPaidAt)
		row.Description = fmt.Sprintf("Designer payout for %s", requestLabel(req))
	} else {
		row.ID = req.Payment.ShopPayoutID
		if row.ID == "" {
			row.ID = fmt.Sprintf("shop-payout-%d", req.ID)
		}
		row.Amount = *req.Payment.ShopPayoutAmount
		row.PaidAt = timeutil.ToTime(req.Payment.ShopPaidAt)
		row.Description = fmt.Sprintf("Production payout for %s", requestLabel(req))
	}
	return row
}

func orderRow(o *models.Order) models.PaymentTransaction {
	created := o.CreatedAt
	return models.PaymentTransaction{
		ID:           fmt.Sprintf("order-%d", o.ID),
		Type:         models.TransactionOrder,
		ReferenceID:  o.ID,
		Amount:       o.TotalAmount,
		Status:       orderTransactionStatus(o.PaymentStatus),
		PaidAt:       &created,
		Description:  fmt.Sprintf("Order #%d", o.ID),
		CustomerName: o.Customer.FullName,
		ProductName:  orderName(o),
	}
}

func orderTransactionStatus(ps models.OrderPaymentStatus) models.TransactionStatus {
	switch ps {
	case models.OrderPaymentPaid:
		return models.TransactionSuccess
	case models.OrderPaymentFailed:
		return models.TransactionFailed
	case models.OrderPaymentRefunded:
		return models.TransactionRefunded
	default:
		return models.TransactionPending
	}
}

func requestLabel(req *models.CustomizationRequest) string {
	if req.ProductName != "" {
		return req.ProductName
	}
	return fmt.Sprintf("request #%d", req.ID)
}

func applyFilter(rows []models.PaymentTransaction, filter models.HistoryFilter) []models.PaymentTransaction {
	out := rows[:0]
	for _, row := range rows {
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		if filter.Type != "" && row.Type != filter.Type {
			continue
		}
		if filter.DateFrom != nil && (row.PaidAt == nil || row.PaidAt.Before(*filter.DateFrom)) {
			continue
		}
		if filter.DateTo != nil && (row.PaidAt == nil || row.PaidAt.After(*filter.DateTo)) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// sortByPaidAtDesc orders newest first; rows without a date sink to the end.
func sortByPaidAtDesc(rows []models.PaymentTransaction) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].PaidAt, rows[j].PaidAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}
