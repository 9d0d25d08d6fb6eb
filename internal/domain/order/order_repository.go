package order

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository defines the interface for order persistence.
// Orders are append-only: there is no update or delete.
type OrderRepository interface {
	// Create inserts a new order. A second order with the same user and
	// idempotency key returns shared.ErrAlreadyExists.
	Create(ctx context.Context, o *Order) error

	// FindByUser returns the user's orders oldest first
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*Order, error)

	// FindByIdempotencyKey returns the order placed by userID with key
	FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*Order, error)
}
