package repository

import (
	"context"

	"gorm.io/gorm"

	"Printly/internal/models"
)

// Gorm-backed persistence for the finance engine and lifecycle service.
// Repositories hold the shared connection; callers pass a context so the
// underlying driver can observe cancellation.

type CustomizationRepository struct {
	db *gorm.DB
}

func NewCustomizationRepository(db *gorm.DB) *CustomizationRepository {
	return &CustomizationRepository{db: db}
}

func (r *CustomizationRepository) FindByID(ctx context.Context, id uint) (*models.CustomizationRequest, error) {
	var req models.CustomizationRequest
	if err := r.db.WithContext(ctx).Preload("Customer").First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *CustomizationRepository) FindByDesigner(ctx context.Context, designerUserID uint) ([]models.CustomizationRequest, error) {
	var reqs []models.CustomizationRequest
	err := r.db.WithContext(ctx).Preload("Customer").
		Where("designer_id = ?", designerUserID).
		Order("requested_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *CustomizationRepository) FindByCustomer(ctx context.Context, customerID uint) ([]models.CustomizationRequest, error) {
	var reqs []models.CustomizationRequest
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("requested_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *CustomizationRepository) FindByShop(ctx context.Context, shopID uint) ([]models.CustomizationRequest, error) {
	var reqs []models.CustomizationRequest
	err := r.db.WithContext(ctx).Preload("Customer").
		Where("printing_shop_id = ?", shopID).
		Order("requested_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *CustomizationRepository) FindAll(ctx context.Context, filter map[string]any) ([]models.CustomizationRequest, error) {
	var reqs []models.CustomizationRequest
	query := r.db.WithContext(ctx)
	if len(filter) > 0 {
		query = query.Where(filter)
	}
	err := query.Order("requested_at DESC").Find(&reqs).Error
	return reqs, err
}

// Update applies a partial patch to a request. Payment releases do not go
// through here; they use the escrow service's conditional update.
func (r *CustomizationRepository) Update(ctx context.Context, id uint, patch map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.CustomizationRequest{}).
		Where("id = ?", id).
		Updates(patch).Error
}

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) FindByBusinessOwner(ctx context.Context, ownerID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Items").Preload("Customer").
		Where("business_owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) FindByCustomer(ctx context.Context, customerID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Items").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Items").Preload("Customer").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

type EarningsRepository struct {
	db *gorm.DB
}

func NewEarningsRepository(db *gorm.DB) *EarningsRepository {
	return &EarningsRepository{db: db}
}

func (r *EarningsRepository) FindByDesigner(ctx context.Context, designerProfileID uint) ([]models.DesignerEarning, error) {
	var earnings []models.DesignerEarning
	err := r.db.WithContext(ctx).
		Where("designer_id = ?", designerProfileID).
		Order("paid_at DESC").
		Find(&earnings).Error
	return earnings, err
}

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) DesignerProfileByUserID(ctx context.Context, userID uint) (*models.DesignerProfile, error) {
	var profile models.DesignerProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) ShopProfileByUserID(ctx context.Context, userID uint) (*models.ShopProfile, error) {
	var profile models.ShopProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}
