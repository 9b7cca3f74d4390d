package models

import (
	"time"
)

// Computed reporting views. These are never persisted; the finance engine
// rebuilds them from requests, orders and earnings records on every call.

type TimeRange string

const (
	Range7Days  TimeRange = "7d"
	Range30Days TimeRange = "30d"
	Range90Days TimeRange = "90d"
	Range1Year  TimeRange = "1y"
	RangeAll    TimeRange = "all"
)

// CutoffFrom maps a time range to its inclusive cutoff date. The zero time
// means unbounded.
func (tr TimeRange) CutoffFrom(now time.Time) time.Time {
	switch tr {
	case Range7Days:
		return now.AddDate(0, 0, -7)
	case Range30Days:
		return now.AddDate(0, 0, -30)
	case Range90Days:
		return now.AddDate(0, 0, -90)
	case Range1Year:
		return now.AddDate(-1, 0, 0)
	default:
		return time.Time{}
	}
}

type FinanceSummary struct {
	TotalEarnings     float64 `json:"total_earnings"`
	PaidAmount        float64 `json:"paid_amount"`
	PendingAmount     float64 `json:"pending_amount"`
	ThisMonthEarnings float64 `json:"this_month_earnings"`
	Currency          string  `json:"currency"`
}

type TransactionType string

const (
	TransactionCustomization TransactionType = "customization"
	TransactionOrder         TransactionType = "order"
)

type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "pending"
	TransactionSuccess  TransactionStatus = "success"
	TransactionFailed   TransactionStatus = "failed"
	TransactionRefunded TransactionStatus = "refunded"
)

// PaymentTransaction is one normalized row of the payment history: a customer
// payment, a payout, or an order, flattened into a single shape.
type PaymentTransaction struct {
	ID            string            `json:"id"`
	Type          TransactionType   `json:"type"`
	ReferenceID   uint              `json:"reference_id"`
	Amount        float64           `json:"amount"`
	Status        TransactionStatus `json:"status"`
	PaidAt        *time.Time        `json:"paid_at,omitempty"`
	PaymentMethod string            `json:"payment_method,omitempty"`
	InvoiceURL    string            `json:"invoice_url,omitempty"`
	Description   string            `json:"description,omitempty"`
	CustomerName  string            `json:"customer_name,omitempty"`
	ProductName   string            `json:"product_name,omitempty"`
}

// HistoryFilter narrows the payment history per row.
type HistoryFilter struct {
	Status   TransactionStatus `json:"status,omitempty"`
	Type     TransactionType   `json:"type,omitempty"`
	DateFrom *time.Time        `json:"date_from,omitempty"`
	DateTo   *time.Time        `json:"date_to,omitempty"`
}

type RevenuePoint struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Amount float64 `json:"amount"`
}

type RevenueBreakdown struct {
	Customizations float64 `json:"customizations"`
	Orders         float64 `json:"orders"`
}

type TopItem struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

type RevenueAnalytics struct {
	Series    []RevenuePoint   `json:"series"`
	Breakdown RevenueBreakdown `json:"breakdown"`
	TopItems  []TopItem        `json:"top_items"`
	Growth    float64          `json:"growth"` // percent, second half vs first half
}
