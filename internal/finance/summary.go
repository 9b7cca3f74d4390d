package finance

import (
	"context"

	"Printly/internal/models"
	"Printly/internal/timeutil"
)

// GetFinanceSummary computes the point-in-time money position for a designer
// or business owner: total earned, settled, still pending, and the current
// calendar month's share.
func (s *Service) GetFinanceSummary(ctx context.Context, userID uint, role models.UserRole, timeRange models.TimeRange) (*models.FinanceSummary, error) {
	events, err := s.collectEvents(ctx, userID, role)
	if err != nil {
		return nil, err
	}

	now := s.now()
	cutoff := timeRange.CutoffFrom(now)

	summary := &models.FinanceSummary{Currency: s.currency}
	for _, ev := range events {
		if !ev.inRange(cutoff) {
			continue
		}
		summary.TotalEarnings += ev.amount
		if ev.paid {
			summary.PaidAmount += ev.amount
		} else {
			summary.PendingAmount += ev.amount
		}
		if ev.effectiveAt != nil && timeutil.SameMonth(*ev.effectiveAt, now) {
			summary.ThisMonthEarnings += ev.amount
		}
	}
	return summary, nil
}
