package account

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopcart/backend/internal/application/retry"
	"github.com/shopcart/backend/internal/domain/account"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func testServiceConfig() ServiceConfig {
	return ServiceConfig{
		VerifyProducts: true,
		Retry:          retry.Policy{MaxRetries: 50, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond},
	}
}

func newTestUser(t *testing.T) *account.User {
	t.Helper()
	u, err := account.NewUser("shopper@x.com", "secret1", "Shopper", "", bcrypt.MinCost)
	require.NoError(t, err)
	return u
}

func mug() *catalog.Product {
	return &catalog.Product{ID: "p1", Name: "Mug", Price: decimal.RequireFromString("4.50")}
}

func intPtr(v int) *int { return &v }

func TestCartService_AddToCart(t *testing.T) {
	ctx := context.Background()

	t.Run("merges quantities", func(t *testing.T) {
		user := newTestUser(t)
		repo := newMemoryUserRepository(user)
		products := new(MockCatalog)
		products.On("Get", ctx, catalog.ProductID("p1")).Return(mug(), nil)
		svc := NewCartService(repo, products, testServiceConfig(), zap.NewNop())

		_, err := svc.AddToCart(ctx, user.ID, AddToCartInput{ProductID: "p1", Quantity: 2})
		require.NoError(t, err)
		updated, err := svc.AddToCart(ctx, user.ID, AddToCartInput{ProductID: "p1", Quantity: 3})
		require.NoError(t, err)

		require.Len(t, updated.Cart, 1)
		assert.Equal(t, 5, updated.Cart[0].Quantity)
		assert.Equal(t, 3, updated.Version)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		svc := NewCartService(new(MockUserRepository), new(MockCatalog), testServiceConfig(), zap.NewNop())

		_, err := svc.AddToCart(ctx, newTestUser(t).ID, AddToCartInput{ProductID: "p1", Quantity: 0})

		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("rejects malformed product reference", func(t *testing.T) {
		svc := NewCartService(new(MockUserRepository), new(MockCatalog), testServiceConfig(), zap.NewNop())

		_, err := svc.AddToCart(ctx, newTestUser(t).ID, AddToCartInput{ProductID: `{"$ne":1}`, Quantity: 1})

		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("unknown product is not found", func(t *testing.T) {
		users := new(MockUserRepository)
		products := new(MockCatalog)
		products.On("Get", ctx, catalog.ProductID("ghost")).Return(nil, shared.ErrNotFound)
		svc := NewCartService(users, products, testServiceConfig(), zap.NewNop())

		_, err := svc.AddToCart(ctx, newTestUser(t).ID, AddToCartInput{ProductID: "ghost", Quantity: 1})

		assert.True(t, errors.Is(err, shared.ErrNotFound))
		users.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("skips catalog when verification is off", func(t *testing.T) {
		user := newTestUser(t)
		repo := newMemoryUserRepository(user)
		products := new(MockCatalog)
		cfg := testServiceConfig()
		cfg.VerifyProducts = false
		svc := NewCartService(repo, products, cfg, zap.NewNop())

		_, err := svc.AddToCart(ctx, user.ID, AddToCartInput{ProductID: "p1", Quantity: 1})

		require.NoError(t, err)
		products.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		users := new(MockUserRepository)
		products := new(MockCatalog)
		user := newTestUser(t)
		products.On("Get", ctx, catalog.ProductID("p1")).Return(mug(), nil)
		users.On("FindByID", mock.Anything, user.ID).Return(nil, shared.NewNotFoundError("User"))
		svc := NewCartService(users, products, testServiceConfig(), zap.NewNop())

		_, err := svc.AddToCart(ctx, user.ID, AddToCartInput{ProductID: "p1", Quantity: 1})

		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("concurrent adds are not lost", func(t *testing.T) {
		user := newTestUser(t)
		repo := newMemoryUserRepository(user)
		products := new(MockCatalog)
		products.On("Get", mock.Anything, catalog.ProductID("p1")).Return(mug(), nil)
		svc := NewCartService(repo, products, testServiceConfig(), zap.NewNop())

		var wg sync.WaitGroup
		errs := make(chan error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.AddToCart(ctx, user.ID, AddToCartInput{ProductID: "p1", Quantity: 1})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}
		stored := repo.get(user.ID)
		assert.Equal(t, 2, stored.CartQuantity("p1"))
	})

	t.Run("persistent contention becomes transient", func(t *testing.T) {
		user := newTestUser(t)
		users := new(MockUserRepository)
		products := new(MockCatalog)
		products.On("Get", ctx, catalog.ProductID("p1")).Return(mug(), nil)
		users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		users.On("Update", mock.Anything, user).Return(shared.ErrConcurrencyConflict)
		cfg := testServiceConfig()
		cfg.Retry.MaxRetries = 2
		svc := NewCartService(users, products, cfg, zap.NewNop())

		_, err := svc.AddToCart(ctx, user.ID, AddToCartInput{ProductID: "p1", Quantity: 1})

		assert.True(t, errors.Is(err, shared.ErrTransient))
		users.AssertNumberOfCalls(t, "Update", 3)
	})
}

func TestCartService_RemoveFromCart(t *testing.T) {
	ctx := context.Background()

	seeded := func(t *testing.T, qty int) (*account.User, *memoryUserRepository) {
		user := newTestUser(t)
		require.NoError(t, user.AddToCart("p1", qty))
		return user, newMemoryUserRepository(user)
	}

	tests := []struct {
		name     string
		start    int
		quantity *int
		want     int
	}{
		{name: "omitted quantity removes line", start: 5, quantity: nil, want: 0},
		{name: "zero quantity removes line", start: 5, quantity: intPtr(0), want: 0},
		{name: "partial decrement", start: 5, quantity: intPtr(2), want: 3},
		{name: "exact decrement removes line", start: 5, quantity: intPtr(5), want: 0},
		{name: "over decrement removes line", start: 2, quantity: intPtr(7), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, repo := seeded(t, tt.start)
			svc := NewCartService(repo, new(MockCatalog), testServiceConfig(), zap.NewNop())

			updated, err := svc.RemoveFromCart(ctx, user.ID, RemoveFromCartInput{ProductID: "p1", Quantity: tt.quantity})

			require.NoError(t, err)
			assert.Equal(t, tt.want, updated.CartQuantity("p1"))
			stored := repo.get(user.ID)
			assert.Equal(t, tt.want, stored.CartQuantity("p1"))
		})
	}

	t.Run("absent product is not found", func(t *testing.T) {
		user, repo := seeded(t, 1)
		svc := NewCartService(repo, new(MockCatalog), testServiceConfig(), zap.NewNop())

		_, err := svc.RemoveFromCart(ctx, user.ID, RemoveFromCartInput{ProductID: "p2"})

		assert.True(t, errors.Is(err, shared.ErrNotFound))
		assert.Equal(t, user.Version, repo.get(user.ID).Version)
	})
}

func TestCartService_ListCart(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves products and flags missing ones", func(t *testing.T) {
		user := newTestUser(t)
		require.NoError(t, user.AddToCart("p1", 2))
		require.NoError(t, user.AddToCart("gone", 1))
		users := new(MockUserRepository)
		products := new(MockCatalog)
		users.On("FindByID", ctx, user.ID).Return(user, nil)
		products.On("GetMany", ctx, []catalog.ProductID{"p1", "gone"}).
			Return(map[catalog.ProductID]*catalog.Product{"p1": mug()}, nil)
		svc := NewCartService(users, products, testServiceConfig(), zap.NewNop())

		items, err := svc.ListCart(ctx, user.ID)

		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "Mug", items[0].Product.Name)
		assert.Equal(t, 2, items[0].Quantity)
		assert.False(t, items[0].Missing)
		assert.Equal(t, catalog.ProductID("gone"), items[1].Product.ID)
		assert.True(t, items[1].Missing)
	})

	t.Run("empty cart skips the catalog", func(t *testing.T) {
		user := newTestUser(t)
		users := new(MockUserRepository)
		products := new(MockCatalog)
		users.On("FindByID", ctx, user.ID).Return(user, nil)
		svc := NewCartService(users, products, testServiceConfig(), zap.NewNop())

		items, err := svc.ListCart(ctx, user.ID)

		require.NoError(t, err)
		assert.Empty(t, items)
		products.AssertNotCalled(t, "GetMany", mock.Anything, mock.Anything)
	})

	t.Run("catalog failure is returned", func(t *testing.T) {
		user := newTestUser(t)
		require.NoError(t, user.AddToCart("p1", 1))
		users := new(MockUserRepository)
		products := new(MockCatalog)
		users.On("FindByID", ctx, user.ID).Return(user, nil)
		products.On("GetMany", ctx, mock.Anything).Return(nil, shared.ErrTransient)
		svc := NewCartService(users, products, testServiceConfig(), zap.NewNop())

		_, err := svc.ListCart(ctx, user.ID)

		assert.True(t, errors.Is(err, shared.ErrTransient))
	})
}
