package models

import (
	"time"

	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

type OrderPaymentStatus string

const (
	OrderPaymentPending  OrderPaymentStatus = "pending"
	OrderPaymentPaid     OrderPaymentStatus = "paid"
	OrderPaymentFailed   OrderPaymentStatus = "failed"
	OrderPaymentRefunded OrderPaymentStatus = "refunded"
)

type OrderItemType string

const (
	OrderItemProduct OrderItemType = "product"
	OrderItemDesign  OrderItemType = "design"
)

type OrderItem struct {
	ID          uint          `gorm:"primarykey" json:"id"`
	OrderID     uint          `gorm:"not null;index" json:"order_id"`
	ProductID   *uint         `json:"product_id,omitempty"`
	DesignID    *uint         `json:"design_id,omitempty"`
	ItemType    OrderItemType `gorm:"type:varchar(20);not null" json:"item_type"`
	Quantity    int           `gorm:"not null;default:1" json:"quantity"`
	Price       float64       `gorm:"not null" json:"price"`
	ProductName string        `gorm:"type:varchar(255)" json:"product_name,omitempty"`
	DesignName  string        `gorm:"type:varchar(255)" json:"design_name,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

type Order struct {
	ID              uint               `gorm:"primarykey" json:"id"`
	BusinessOwnerID uint               `gorm:"not null;index" json:"business_owner_id"`
	CustomerID      uint               `gorm:"not null;index" json:"customer_id"`
	Items           []OrderItem        `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Status          OrderStatus        `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PaymentStatus   OrderPaymentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	TotalAmount     float64            `gorm:"not null" json:"total_amount"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	DeletedAt       gorm.DeletedAt     `gorm:"index" json:"-"`

	Customer User `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// IsDesignOnly reports whether every item in the order is a digital design,
// meaning no physical production step is involved.
func (o *Order) IsDesignOnly() bool {
	if len(o.Items) == 0 {
		return false
	}
	for _, item := range o.Items {
		if item.ItemType != OrderItemDesign {
			return false
		}
	}
	return true
}
