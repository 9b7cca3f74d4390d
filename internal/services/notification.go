package services

import (
	"encoding/json"
	"fmt"

	"Printly/internal/database"
	"Printly/internal/models"
)

type NotificationService struct{}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// Notify creates a new notification for a user
func (s *NotificationService) Notify(userID uint, notifType models.NotificationType, title, message string, data map[string]any) error {
	// Convert data to JSON string
	var dataJSON string
	if data != nil {
		jsonBytes, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal notification data: %w", err)
		}
		dataJSON = string(jsonBytes)
	}

	notification := models.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		Data:    dataJSON,
		IsRead:  false,
	}

	if err := database.DB.Create(&notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// NotifyPayoutReleased notifies a designer or shop owner that their escrow
// share was released
func (s *NotificationService) NotifyPayoutReleased(userID uint, amount float64, requestID uint) error {
	return s.Notify(
		userID,
		models.NotificationPayoutReleased,
		"Payout Released",
		fmt.Sprintf("A payout of %.2f has been released to you", amount),
		map[string]any{
			"request_id": requestID,
			"amount":     amount,
		},
	)
}
