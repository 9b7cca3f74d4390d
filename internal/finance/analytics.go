package finance

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"Printly/internal/models"
	"Printly/internal/timeutil"
)

const topItemLimit = 10

// GetRevenueAnalytics builds the daily revenue series for the requested
// window, with a customization/order breakdown, the top earning items, and
// the growth between the first and second half of the window.
func (s *Service) GetRevenueAnalytics(ctx context.Context, userID uint, role models.UserRole, timeRange models.TimeRange) (*models.RevenueAnalytics, error) {
	events, err := s.collectEvents(ctx, userID, role)
	if err != nil {
		return nil, err
	}

	now := s.now()
	cutoff := timeRange.CutoffFrom(now)
	if cutoff.IsZero() {
		// "all" still needs a bounded series; chart a year back.
		cutoff = now.AddDate(-1, 0, 0)
	}

	analytics := &models.RevenueAnalytics{}
	buckets := make(map[string]float64)
	items := make(map[string]*models.TopItem)
	nameCache := make(map[uint]string)

	for _, ev := range events {
		if !ev.paid || ev.effectiveAt == nil || ev.effectiveAt.Before(cutoff) {
			continue
		}
		buckets[timeutil.DayKey(*ev.effectiveAt)] += ev.amount

		switch ev.source {
		case models.TransactionCustomization:
			analytics.Breakdown.Customizations += ev.amount
		case models.TransactionOrder:
			analytics.Breakdown.Orders += ev.amount
		}

		name := s.resolveItemName(ctx, ev, nameCache)
		if name == "" {
			continue
		}
		if item, ok := items[name]; ok {
			item.Amount += ev.amount
			item.Count++
		} else {
			items[name] = &models.TopItem{Name: name, Amount: ev.amount, Count: 1}
		}
	}

	analytics.Series = buildSeries(buckets, cutoff, now)
	analytics.TopItems = topItems(items)
	analytics.Growth = growthPercent(analytics.Series)
	return analytics, nil
}

// resolveItemName prefers the name embedded in the record and only then asks
// the product catalog, caching per call so N events for one product cost a
// single lookup. A failed lookup contributes no top-item entry.
func (s *Service) resolveItemName(ctx context.Context, ev ledgerEvent, cache map[uint]string) string {
	if ev.itemName != "" {
		return ev.itemName
	}
	if ev.productID == nil {
		return ""
	}
	if name, ok := cache[*ev.productID]; ok {
		return name
	}
	product, err := s.products.FindByID(ctx, *ev.productID)
	if err != nil {
		s.log.Warn("product name lookup failed",
			zap.Uint("product_id", *ev.productID), zap.Error(err))
		cache[*ev.productID] = ""
		return ""
	}
	cache[*ev.productID] = product.Name
	return product.Name
}

func buildSeries(buckets map[string]float64, cutoff, now time.Time) []models.RevenuePoint {
	var series []models.RevenuePoint
	for day := cutoff; !day.After(now); day = day.AddDate(0, 0, 1) {
		key := timeutil.DayKey(day)
		series = append(series, models.RevenuePoint{Date: key, Amount: buckets[key]})
	}
	return series
}

func topItems(items map[string]*models.TopItem) []models.TopItem {
	out := make([]models.TopItem, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	if len(out) > topItemLimit {
		out = out[:topItemLimit]
	}
	return out
}

// growthPercent compares the revenue of the second half of the series to the
// first half. Both halves empty means flat; revenue appearing from nothing
// reads as 100%.
func growthPercent(series []models.RevenuePoint) float64 {
	if len(series) == 0 {
		return 0
	}
	half := len(series) / 2
	var first, second float64
	for i, p := range series {
		if i < half {
			first += p.Amount
		} else {
			second += p.Amount
		}
	}
	switch {
	case first == 0 && second == 0:
		return 0
	case first == 0:
		return 100
	default:
		return (second - first) / first * 100
	}
}
