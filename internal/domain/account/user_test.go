package account

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestUser(t *testing.T) *User {
	t.Helper()
	user, err := NewUser("a@x.com", "pw1pw1", "Alice", "", bcrypt.MinCost)
	require.NoError(t, err)
	return user
}

func TestNewUser(t *testing.T) {
	t.Run("creates user with hashed password", func(t *testing.T) {
		user, err := NewUser("  Alice@Example.COM ", "secret123", " Alice ", "https://img/a.png", bcrypt.MinCost)

		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, "Alice", user.Name)
		assert.Equal(t, "https://img/a.png", user.Avatar)
		assert.NotEqual(t, "secret123", user.PasswordHash)
		assert.Equal(t, 1, user.Version)
		assert.Empty(t, user.Cart)
		assert.Empty(t, user.Favourites)
	})

	t.Run("falls back to default cost", func(t *testing.T) {
		user, err := NewUser("b@x.com", "secret123", "Bob", "", 0)

		require.NoError(t, err)
		cost, err := bcrypt.Cost([]byte(user.PasswordHash))
		require.NoError(t, err)
		assert.Equal(t, DefaultBcryptCost, cost)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		_, err := NewUser("not-an-email", "secret123", "Bob", "", bcrypt.MinCost)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("rejects short password", func(t *testing.T) {
		_, err := NewUser("b@x.com", "123", "Bob", "", bcrypt.MinCost)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		assert.Contains(t, err.Error(), "at least 6")
	})

	t.Run("rejects password beyond bcrypt limit", func(t *testing.T) {
		_, err := NewUser("b@x.com", strings.Repeat("p", 73), "Bob", "", bcrypt.MinCost)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewUser("b@x.com", "secret123", "   ", "", bcrypt.MinCost)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}

func TestUser_VerifyPassword(t *testing.T) {
	user := newTestUser(t)

	assert.True(t, user.VerifyPassword("pw1pw1"))
	assert.False(t, user.VerifyPassword("pw1pw2"))
	assert.False(t, user.VerifyPassword(""))

	user.PasswordHash = ""
	assert.False(t, user.VerifyPassword("pw1pw1"))
}

func TestUser_AddToCart(t *testing.T) {
	t.Run("merges quantities for the same product", func(t *testing.T) {
		user := newTestUser(t)

		require.NoError(t, user.AddToCart("p1", 2))
		require.NoError(t, user.AddToCart("p1", 3))
		require.NoError(t, user.AddToCart("p1", 1))

		require.Len(t, user.Cart, 1)
		assert.Equal(t, 6, user.CartQuantity("p1"))
	})

	t.Run("appends new products in order", func(t *testing.T) {
		user := newTestUser(t)

		require.NoError(t, user.AddToCart("p1", 1))
		require.NoError(t, user.AddToCart("p2", 4))

		assert.Equal(t, []ProductRef{"p1", "p2"}, user.CartProductIDs())
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		user := newTestUser(t)

		err := user.AddToCart("p1", 0)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		err = user.AddToCart("p1", -2)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		assert.Empty(t, user.Cart)
	})
}

func TestUser_RemoveFromCart(t *testing.T) {
	qty := func(n int) *int { return &n }

	tests := []struct {
		name     string
		start    int
		remove   *int
		wantLine bool
		wantQty  int
	}{
		{name: "omitted quantity removes line", start: 7, remove: nil},
		{name: "zero quantity removes line", start: 7, remove: qty(0)},
		{name: "negative quantity removes line", start: 7, remove: qty(-1)},
		{name: "quantity equal to current removes line", start: 3, remove: qty(3)},
		{name: "quantity above current removes line", start: 3, remove: qty(10)},
		{name: "smaller quantity decrements exactly", start: 5, remove: qty(2), wantLine: true, wantQty: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := newTestUser(t)
			require.NoError(t, user.AddToCart("keep", 1))
			require.NoError(t, user.AddToCart("p1", tt.start))

			require.NoError(t, user.RemoveFromCart("p1", tt.remove))

			assert.Equal(t, tt.wantQty, user.CartQuantity("p1"))
			if tt.wantLine {
				assert.Len(t, user.Cart, 2)
			} else {
				assert.Equal(t, []ProductRef{"keep"}, user.CartProductIDs())
			}
			for _, line := range user.Cart {
				assert.Positive(t, line.Quantity)
			}
		})
	}

	t.Run("missing line is not found", func(t *testing.T) {
		user := newTestUser(t)

		err := user.RemoveFromCart("ghost", nil)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestUser_ClearCart(t *testing.T) {
	user := newTestUser(t)
	require.NoError(t, user.AddToCart("p1", 2))

	user.ClearCart()

	assert.NotNil(t, user.Cart)
	assert.Empty(t, user.Cart)
}

func TestUser_Favourites(t *testing.T) {
	t.Run("add is idempotent", func(t *testing.T) {
		user := newTestUser(t)

		assert.True(t, user.AddFavourite("p1"))
		assert.False(t, user.AddFavourite("p1"))

		assert.Equal(t, []ProductRef{"p1"}, user.Favourites)
	})

	t.Run("remove absent is a no-op", func(t *testing.T) {
		user := newTestUser(t)
		user.AddFavourite("p1")

		assert.False(t, user.RemoveFavourite("p2"))
		assert.Equal(t, []ProductRef{"p1"}, user.Favourites)
	})

	t.Run("remove present", func(t *testing.T) {
		user := newTestUser(t)
		user.AddFavourite("p1")
		user.AddFavourite("p2")

		assert.True(t, user.RemoveFavourite("p1"))
		assert.False(t, user.HasFavourite("p1"))
		assert.Equal(t, []ProductRef{"p2"}, user.Favourites)
	})
}
