package testutil

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placedEvent(t *testing.T) *order.OrderPlacedEvent {
	t.Helper()
	o, err := order.NewOrder(uuid.New(), []order.Line{
		{ProductID: "tee", Quantity: 1, Price: decimal.NewFromInt(5)},
	}, "1 Main St", decimal.NewFromInt(5), "")
	require.NoError(t, err)
	return order.NewOrderPlacedEvent(o)
}

func TestMockEventHandler(t *testing.T) {
	h := NewMockEventHandler(order.EventTypeOrderPlaced)
	assert.Equal(t, []string{order.EventTypeOrderPlaced}, h.EventTypes())

	require.NoError(t, h.Handle(context.Background(), placedEvent(t)))
	assert.Equal(t, 1, h.HandledCount())

	boom := errors.New("boom")
	h.SetError(boom)
	assert.ErrorIs(t, h.Handle(context.Background(), placedEvent(t)), boom)
	assert.Len(t, h.Handled(), 2)
}

func TestWaitForCondition(t *testing.T) {
	var flag atomic.Bool
	go func() {
		time.Sleep(20 * time.Millisecond)
		flag.Store(true)
	}()
	assert.True(t, WaitForCondition(t, flag.Load, time.Second, 5*time.Millisecond))
	assert.False(t, WaitForCondition(t, func() bool { return false }, 20*time.Millisecond, 5*time.Millisecond))
}

func TestWaitForEventCount(t *testing.T) {
	h := NewMockEventHandler()
	go func() {
		_ = h.Handle(context.Background(), placedEvent(t))
	}()
	assert.True(t, WaitForEventCount(t, h, 1, time.Second))
}

func TestNewTestUser(t *testing.T) {
	u := NewTestUser(t, "Someone@Example.com")
	assert.Equal(t, "someone@example.com", u.Email)
	assert.True(t, u.VerifyPassword(TestPassword))
}
