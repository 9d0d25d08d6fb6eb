package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/account"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopcart/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUserRepository implements account.UserRepository using GORM
type GormUserRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGormUserRepository creates a new GormUserRepository. Every call is
// bounded by timeout.
func NewGormUserRepository(db *gorm.DB, timeout time.Duration) *GormUserRepository {
	return &GormUserRepository{db: db, timeout: timeout}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *account.User) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	model := models.UserModelFromDomain(user)
	return translateError(ctx, r.db.WithContext(ctx).Create(model).Error, "User")
}

// Update writes the user if nobody else did since it was read
func (r *GormUserRepository) Update(ctx context.Context, user *account.User) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	result := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("id = ? AND version = ?", user.ID, user.Version).
		Updates(map[string]interface{}{
			"email":         user.Email,
			"password_hash": user.PasswordHash,
			"name":          user.Name,
			"avatar":        user.Avatar,
			"cart":          models.CartLines(user.Cart),
			"favourites":    models.ProductIDs(user.Favourites),
			"version":       user.Version + 1,
			"updated_at":    user.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(ctx, result.Error, "User")
	}
	if result.RowsAffected == 0 {
		return r.missingOrStale(ctx, user.ID)
	}
	user.IncrementVersion()
	return nil
}

// missingOrStale tells a deleted row apart from a lost race
func (r *GormUserRepository) missingOrStale(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.UserModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return translateError(ctx, err, "User")
	}
	if count == 0 {
		return shared.NewNotFoundError("User")
	}
	return shared.ErrConcurrencyConflict
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*account.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var model models.UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(ctx, err, "User")
	}
	return model.ToDomain(), nil
}

// FindByEmail finds a user by normalized email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*account.User, error) {
	if email == "" {
		return nil, shared.NewNotFoundError("User")
	}
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var model models.UserModel
	if err := r.db.WithContext(ctx).Where("email = ?", account.NormalizeEmail(email)).First(&model).Error; err != nil {
		return nil, translateError(ctx, err, "User")
	}
	return model.ToDomain(), nil
}

// ExistsByEmail checks if an email is already registered
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("email = ?", account.NormalizeEmail(email)).
		Count(&count).Error; err != nil {
		return false, translateError(ctx, err, "User")
	}
	return count > 0, nil
}

// Ensure GormUserRepository implements account.UserRepository
var _ account.UserRepository = (*GormUserRepository)(nil)
