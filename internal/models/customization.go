package models

import (
	"time"

	"gorm.io/gorm"
)

type RequestStatus string

const (
	RequestPendingDesignerReview    RequestStatus = "pending_designer_review"
	RequestAwaitingCustomerApproval RequestStatus = "awaiting_customer_approval"
	RequestCustomerApproved         RequestStatus = "customer_approved"
	RequestReadyForProduction       RequestStatus = "ready_for_production"
	RequestInProduction             RequestStatus = "in_production"
	RequestCompleted                RequestStatus = "completed"
	RequestRejected                 RequestStatus = "rejected"
	RequestCancelled                RequestStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestCompleted || s == RequestCancelled || s == RequestRejected
}

type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentPartiallyPaid PaymentStatus = "partially_paid"
	PaymentFullyPaid     PaymentStatus = "fully_paid"
)

type EscrowStatus string

const (
	EscrowHeld         EscrowStatus = "held"
	EscrowDesignerPaid EscrowStatus = "designer_paid"
	EscrowShopPaid     EscrowStatus = "shop_paid"
	EscrowReleased     EscrowStatus = "released"
)

type PaymentRecordStatus string

const (
	PaymentRecordPending PaymentRecordStatus = "pending"
	PaymentRecordSuccess PaymentRecordStatus = "success"
	PaymentRecordFailed  PaymentRecordStatus = "failed"
)

// PricingAgreement is the price breakdown agreed between customer, designer
// and printing shop. TotalCost must equal the sum of its parts.
type PricingAgreement struct {
	DesignFee    float64 `json:"design_fee"`
	ProductCost  float64 `json:"product_cost"`
	PrintingCost float64 `json:"printing_cost"`
	TotalCost    float64 `json:"total_cost"`
}

// PaymentRecord is an append-only entry in the request's payment history.
// A failed attempt is recorded as a new entry, never overwritten.
type PaymentRecord struct {
	ID            string              `json:"id"`
	Amount        float64             `json:"amount"`
	Status        PaymentRecordStatus `json:"status"`
	PaidAt        *time.Time          `json:"paid_at,omitempty"`
	PaymentMethod string              `json:"payment_method,omitempty"`
	InvoiceURL    string              `json:"invoice_url,omitempty"`
}

type PaymentDetails struct {
	PaymentStatus PaymentStatus   `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	PaidAmount    float64         `gorm:"default:0" json:"paid_amount"`
	Payments      []PaymentRecord `gorm:"serializer:json" json:"payments,omitempty"`
	EscrowStatus  EscrowStatus    `gorm:"type:varchar(20);not null;default:'held'" json:"escrow_status"`

	DesignerPayoutAmount *float64   `json:"designer_payout_amount,omitempty"`
	DesignerPaidAt       *time.Time `json:"designer_paid_at,omitempty"`
	DesignerPayoutID     string     `gorm:"type:varchar(64)" json:"designer_payout_id,omitempty"`

	ShopPayoutAmount *float64   `json:"shop_payout_amount,omitempty"`
	ShopPaidAt       *time.Time `json:"shop_paid_at,omitempty"`
	ShopPayoutID     string     `gorm:"type:varchar(64)" json:"shop_payout_id,omitempty"`
}

// HasSuccessfulPayment reports whether the customer's money has actually
// arrived: a successful payment record, a paid-ish status, or a non-zero
// collected amount.
func (pd PaymentDetails) HasSuccessfulPayment() bool {
	for _, p := range pd.Payments {
		if p.Status == PaymentRecordSuccess {
			return true
		}
	}
	return pd.PaymentStatus == PaymentPartiallyPaid ||
		pd.PaymentStatus == PaymentFullyPaid ||
		pd.PaidAmount > 0
}

// HasPendingPayment reports whether a payment attempt is still in flight.
func (pd PaymentDetails) HasPendingPayment() bool {
	for _, p := range pd.Payments {
		if p.Status == PaymentRecordPending {
			return true
		}
	}
	return false
}

// LatestSuccessfulPaymentAt returns the most recent successful payment date,
// or nil when the customer has not paid yet.
func (pd PaymentDetails) LatestSuccessfulPaymentAt() *time.Time {
	var latest *time.Time
	for _, p := range pd.Payments {
		if p.Status != PaymentRecordSuccess || p.PaidAt == nil {
			continue
		}
		if latest == nil || p.PaidAt.After(*latest) {
			t := *p.PaidAt
			latest = &t
		}
	}
	return latest
}

type CustomizationRequest struct {
	ID             uint   `gorm:"primarykey" json:"id"`
	CustomerID     uint   `gorm:"not null;index" json:"customer_id"`
	DesignerID     *uint  `gorm:"index" json:"designer_id,omitempty"`
	PrintingShopID *uint  `gorm:"index" json:"printing_shop_id,omitempty"`
	ProductID      *uint  `json:"product_id,omitempty"`
	ProductName    string `gorm:"type:varchar(255)" json:"product_name,omitempty"`
	Brief          string `gorm:"type:text" json:"brief,omitempty"`

	Status RequestStatus `gorm:"type:varchar(32);not null;default:'pending_designer_review';index" json:"status"`

	Pricing *PricingAgreement `gorm:"serializer:json" json:"pricing,omitempty"`
	Payment PaymentDetails    `gorm:"embedded" json:"payment"`

	RejectionReason string `gorm:"type:text" json:"rejection_reason,omitempty"`
	DesignerNotes   string `gorm:"type:text" json:"designer_notes,omitempty"`
	FinalFileURL    string `gorm:"type:text" json:"final_file_url,omitempty"`
	PreviewImageURL string `gorm:"type:text" json:"preview_image_url,omitempty"`
	RevisionCount   int    `gorm:"default:0" json:"revision_count"`

	RequestedAt time.Time      `json:"requested_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Customer User `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

func (CustomizationRequest) TableName() string {
	return "customization_requests"
}

func (r *CustomizationRequest) BeforeCreate(tx *gorm.DB) error {
	if r.RequestedAt.IsZero() {
		r.RequestedAt = time.Now()
	}
	return nil
}

// HasPricing reports whether a pricing agreement has been recorded.
func (r *CustomizationRequest) HasPricing() bool {
	return r.Pricing != nil
}

// DesignerPayoutValue is the amount owed to the designer: the provisioned
// payout when set, otherwise the raw design fee.
func (r *CustomizationRequest) DesignerPayoutValue() float64 {
	if r.Payment.DesignerPayoutAmount != nil {
		return *r.Payment.DesignerPayoutAmount
	}
	if r.Pricing != nil {
		return r.Pricing.DesignFee
	}
	return 0
}

// ShopPayoutValue is the amount owed to the printing shop: the provisioned
// payout when set, otherwise product cost plus printing cost.
func (r *CustomizationRequest) ShopPayoutValue() float64 {
	if r.Payment.ShopPayoutAmount != nil {
		return *r.Payment.ShopPayoutAmount
	}
	if r.Pricing != nil {
		return r.Pricing.ProductCost + r.Pricing.PrintingCost
	}
	return 0
}
