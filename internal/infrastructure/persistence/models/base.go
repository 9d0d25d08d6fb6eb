package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/shared"
)

// AggregateModel holds the columns every aggregate table shares. Version
// backs the conditional UPDATE ... WHERE version = ? used for optimistic
// locking.
type AggregateModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Version   int       `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func aggregateModel(a shared.BaseAggregateRoot) AggregateModel {
	return AggregateModel{ID: a.ID, Version: a.Version, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt}
}

func (m AggregateModel) aggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Version:    m.Version,
	}
}
