package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/order"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate.
// A NULL idempotency key never collides, so the unique index only binds
// orders placed with a key.
type OrderModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_orders_user_created,priority:1;uniqueIndex:idx_orders_user_idempotency,priority:1"`
	Lines          OrderLines      `gorm:"type:jsonb;not null"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Address        string          `gorm:"type:varchar(500);not null"`
	IdempotencyKey *string         `gorm:"type:varchar(128);uniqueIndex:idx_orders_user_idempotency,priority:2"`
	Version        int             `gorm:"not null;default:1"`
	CreatedAt      time.Time       `gorm:"not null;index:idx_orders_user_created,priority:2"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	lines := make([]order.Line, len(m.Lines))
	copy(lines, m.Lines)

	o := &order.Order{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		UserID:      m.UserID,
		Lines:       lines,
		TotalAmount: m.TotalAmount,
		Address:     m.Address,
	}
	if m.IdempotencyKey != nil {
		o.IdempotencyKey = *m.IdempotencyKey
	}
	return o
}

// OrderModelFromDomain creates a new persistence model from a domain Order
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{
		ID:          o.ID,
		UserID:      o.UserID,
		Lines:       OrderLines(o.Lines),
		TotalAmount: o.TotalAmount,
		Address:     o.Address,
		Version:     o.Version,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	if o.IdempotencyKey != "" {
		key := o.IdempotencyKey
		m.IdempotencyKey = &key
	}
	return m
}
