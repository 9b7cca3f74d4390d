package models

import (
	"time"

	"gorm.io/gorm"
)

// DesignerProfile links a user account to its designer identity. Earnings
// ledger records are keyed by the profile id, not the user id.
type DesignerProfile struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	UserID      uint           `gorm:"not null;uniqueIndex" json:"user_id"`
	DisplayName string         `gorm:"type:varchar(255);not null" json:"display_name"`
	Bio         string         `gorm:"type:text" json:"bio,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (DesignerProfile) TableName() string {
	return "designer_profiles"
}

// ShopProfile links a business-owner account to its printing shop.
// Customization requests are scoped to the shop id for shop-side reporting.
type ShopProfile struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	UserID    uint           `gorm:"not null;uniqueIndex" json:"user_id"`
	ShopName  string         `gorm:"type:varchar(255);not null" json:"shop_name"`
	Address   string         `gorm:"type:text" json:"address,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (ShopProfile) TableName() string {
	return "shop_profiles"
}
