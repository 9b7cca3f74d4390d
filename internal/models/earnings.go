package models

import (
	"time"
)

// DesignerEarning is the authoritative ledger record for a paid design-only
// order. It is written at most once per order; when present it wins over
// recomputing the amount from the order itself.
type DesignerEarning struct {
	ID         uint       `gorm:"primarykey" json:"id"`
	DesignerID uint       `gorm:"not null;index" json:"designer_id"`
	OrderID    uint       `gorm:"not null;uniqueIndex" json:"order_id"`
	Amount     float64    `gorm:"not null" json:"amount"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (DesignerEarning) TableName() string {
	return "designer_earnings"
}
