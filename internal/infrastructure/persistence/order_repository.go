package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/order"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopcart/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements order.OrderRepository using GORM
type GormOrderRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB, timeout time.Duration) *GormOrderRepository {
	return &GormOrderRepository{db: db, timeout: timeout}
}

// Create inserts a new order
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	model := models.OrderModelFromDomain(o)
	return translateError(ctx, r.db.WithContext(ctx).Create(model).Error, "Order")
}

// FindByUser returns the user's orders oldest first
func (r *GormOrderRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*order.Order, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var orderModels []models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&orderModels).Error; err != nil {
		return nil, translateError(ctx, err, "Order")
	}

	orders := make([]*order.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = orderModels[i].ToDomain()
	}
	return orders, nil
}

// FindByIdempotencyKey returns the order placed by userID with key
func (r *GormOrderRepository) FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*order.Order, error) {
	if key == "" {
		return nil, shared.NewNotFoundError("Order")
	}
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&model).Error; err != nil {
		return nil, translateError(ctx, err, "Order")
	}
	return model.ToDomain(), nil
}

// Ensure GormOrderRepository implements order.OrderRepository
var _ order.OrderRepository = (*GormOrderRepository)(nil)
