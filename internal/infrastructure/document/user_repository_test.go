package document

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopcart/backend/internal/domain/account"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"golang.org/x/crypto/bcrypt"
)

func newTestUser(t *testing.T, email string) *account.User {
	t.Helper()
	u, err := account.NewUser(email, "secret123", "Test User", "", bcrypt.MinCost)
	require.NoError(t, err)
	return u
}

// toBSON renders v the way the driver would store it
func toBSON(t *testing.T, v interface{}) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var d bson.D
	require.NoError(t, bson.Unmarshal(raw, &d))
	return d
}

func ns(mt *mtest.T, coll string) string {
	return mt.DB.Name() + "." + coll
}

func TestUserRepository_Update(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("advances version when the document is current", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, time.Second)
		user := newTestUser(t, "a@example.com")
		require.NoError(mt, user.AddToCart("p1", 2))

		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		require.NoError(mt, repo.Update(ctx, user))
		assert.Equal(mt, 2, user.Version)
	})

	mt.Run("stale version is a conflict", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, time.Second)
		user := newTestUser(t, "a@example.com")

		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, ns(mt, UsersCollection), mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
		)

		err := repo.Update(ctx, user)
		assert.True(mt, errors.Is(err, shared.ErrConcurrencyConflict))
		assert.Equal(mt, 1, user.Version)
	})

	mt.Run("missing user is not found", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, time.Second)
		user := newTestUser(t, "a@example.com")

		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, ns(mt, UsersCollection), mtest.FirstBatch),
		)

		err := repo.Update(ctx, user)
		assert.True(mt, errors.Is(err, shared.ErrNotFound))
	})
}

func TestUserRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("inserts", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(mt, repo.Create(ctx, newTestUser(t, "a@example.com")))
	})

	mt.Run("duplicate email already exists", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: shop.users index: idx_users_email",
		}))

		err := repo.Create(ctx, newTestUser(t, "a@example.com"))
		assert.True(mt, errors.Is(err, shared.ErrAlreadyExists))
	})
}

func TestUserRepository_Find(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("by id decodes cart and favourites", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, time.Second)
		user := newTestUser(t, "a@example.com")
		require.NoError(mt, user.AddToCart("p1", 3))
		user.AddFavourite("p9")

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, UsersCollection), mtest.FirstBatch,
			toBSON(t, newUserDocument(user))))

		found, err := repo.FindByID(ctx, user.ID)
		require.NoError(mt, err)
		assert.Equal(mt, user.ID, found.ID)
		assert.Equal(mt, "a@example.com", found.Email)
		assert.Equal(mt, 3, found.CartQuantity("p1"))
		assert.True(mt, found.HasFavourite("p9"))
		assert.Equal(mt, user.Version, found.Version)
	})

	mt.Run("by email with no match is not found", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, UsersCollection), mtest.FirstBatch))

		_, err := repo.FindByEmail(ctx, "nobody@example.com")
		assert.True(mt, errors.Is(err, shared.ErrNotFound))
	})

	mt.Run("exists by email", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, UsersCollection), mtest.FirstBatch,
			bson.D{{Key: "n", Value: int32(1)}}))

		exists, err := repo.ExistsByEmail(ctx, "A@Example.com")
		require.NoError(mt, err)
		assert.True(mt, exists)
	})
}
