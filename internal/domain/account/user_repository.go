package account

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create inserts a new user. A duplicate email returns shared.ErrAlreadyExists.
	Create(ctx context.Context, user *User) error

	// Update writes user only if the stored version still equals user.Version.
	// On success user.Version is advanced; when another writer got there first
	// shared.ErrConcurrencyConflict is returned and nothing is written.
	Update(ctx context.Context, user *User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail finds a user by normalized email
	FindByEmail(ctx context.Context, email string) (*User, error)

	// ExistsByEmail checks if an email is already registered
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
