package models

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	ShopID    uint           `gorm:"not null;index" json:"shop_id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	BasePrice float64        `gorm:"not null" json:"base_price"`
	Active    bool           `gorm:"default:true" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}
