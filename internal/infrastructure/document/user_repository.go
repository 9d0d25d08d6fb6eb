package document

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/account"
	"github.com/shopcart/backend/internal/domain/shared"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository implements account.UserRepository on the users collection
type UserRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *mongo.Database, timeout time.Duration) *UserRepository {
	return &UserRepository{coll: db.Collection(UsersCollection), timeout: timeout}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *account.User) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, newUserDocument(user))
	return translateError(ctx, err, "User")
}

// Update replaces the user's mutable fields if the stored version still
// matches user.Version
func (r *UserRepository) Update(ctx context.Context, user *account.User) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	doc := newUserDocument(user)
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": doc.ID, "version": user.Version},
		bson.M{"$set": bson.M{
			"email":         doc.Email,
			"password_hash": doc.PasswordHash,
			"name":          doc.Name,
			"avatar":        doc.Avatar,
			"cart":          doc.Cart,
			"favourites":    doc.Favourites,
			"version":       user.Version + 1,
			"updated_at":    doc.UpdatedAt,
		}},
	)
	if err != nil {
		return translateError(ctx, err, "User")
	}
	if res.MatchedCount == 0 {
		return r.missingOrStale(ctx, user.ID)
	}
	user.IncrementVersion()
	return nil
}

func (r *UserRepository) missingOrStale(ctx context.Context, id uuid.UUID) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return translateError(ctx, err, "User")
	}
	if n == 0 {
		return shared.NewNotFoundError("User")
	}
	return shared.ErrConcurrencyConflict
}

// FindByID finds a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*account.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

// FindByEmail finds a user by normalized email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*account.User, error) {
	if email == "" {
		return nil, shared.NewNotFoundError("User")
	}
	return r.findOne(ctx, bson.M{"email": account.NormalizeEmail(email)})
}

// ExistsByEmail checks if an email is already registered
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"email": account.NormalizeEmail(email)})
	if err != nil {
		return false, translateError(ctx, err, "User")
	}
	return n > 0, nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*account.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translateError(ctx, err, "User")
	}
	return doc.toDomain()
}

// Ensure UserRepository implements account.UserRepository
var _ account.UserRepository = (*UserRepository)(nil)
