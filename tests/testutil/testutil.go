// Package testutil holds helpers shared by the storage and integration
// suites.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/shopcart/backend/internal/domain/account"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the password of every user made by NewTestUser
const TestPassword = "s3cret-pass"

// ProductWriter is a catalog that accepts seed data
type ProductWriter interface {
	Upsert(ctx context.Context, products ...*catalog.Product) error
}

// NewTestUser builds a user with a cheap bcrypt hash
func NewTestUser(t *testing.T, email string) *account.User {
	t.Helper()
	u, err := account.NewUser(email, TestPassword, "Test User", "", bcrypt.MinCost)
	require.NoError(t, err)
	return u
}

// SeedProducts writes a small catalog: "tee" at 19.99 and "mug" at 8.50
func SeedProducts(t *testing.T, w ProductWriter) []*catalog.Product {
	t.Helper()
	products := []*catalog.Product{
		{ID: "tee", Name: "Tee", Price: decimal.RequireFromString("19.99"), Category: "apparel"},
		{ID: "mug", Name: "Mug", Price: decimal.RequireFromString("8.50"), Category: "kitchen"},
	}
	ctx, cancel := ContextWithTimeout(t, 10*time.Second)
	defer cancel()
	require.NoError(t, w.Upsert(ctx, products...))
	return products
}

// ContextWithTimeout returns a context that is also cancelled when the test ends
func ContextWithTimeout(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx, cancel
}

// RequireEventually fails the test unless condition holds before timeout
func RequireEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...interface{}) {
	t.Helper()
	require.Eventually(t, condition, timeout, interval, msgAndArgs...)
}
