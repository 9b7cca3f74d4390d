package database

import (
	"fmt"

	"Printly/internal/logger"
	"Printly/internal/models"
)

func Migrate() error {
	logger.Get().Info("running database migrations")

	err := DB.AutoMigrate(
		&models.User{},
		&models.DesignerProfile{},
		&models.ShopProfile{},
		&models.Product{},
		&models.CustomizationRequest{},
		&models.Order{},
		&models.OrderItem{},
		&models.DesignerEarning{},
		&models.Notification{},
	)

	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Get().Info("database migration completed")
	return nil
}
