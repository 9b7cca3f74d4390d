package models

import (
	"time"

	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationRequestCreated    NotificationType = "request_created"
	NotificationWorkSubmitted     NotificationType = "work_submitted"
	NotificationRequestApproved   NotificationType = "request_approved"
	NotificationRequestRejected   NotificationType = "request_rejected"
	NotificationProductionPriced  NotificationType = "production_priced"
	NotificationProductionStarted NotificationType = "production_started"
	NotificationRequestCompleted  NotificationType = "request_completed"
	NotificationRequestCancelled  NotificationType = "request_cancelled"
	NotificationPaymentReceived   NotificationType = "payment_received"
	NotificationPayoutReleased    NotificationType = "payout_released"
)

type Notification struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	UserID    uint             `json:"user_id" gorm:"not null;index"`
	Type      NotificationType `json:"type" gorm:"type:varchar(50);not null"`
	Title     string           `json:"title" gorm:"type:varchar(255);not null"`
	Message   string           `json:"message" gorm:"type:text;not null"`
	IsRead    bool             `json:"is_read" gorm:"default:false;index"`
	Data      string           `json:"data" gorm:"type:json"`
	CreatedAt time.Time        `json:"created_at"`
	ReadAt    *time.Time       `json:"read_at"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Notification) TableName() string {
	return "notifications"
}

// BeforeCreate hook
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	n.CreatedAt = time.Now()
	return nil
}
