package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopcart/backend/internal/domain/shared"
)

// MockEventHandler is a shared.EventHandler that remembers what it saw
type MockEventHandler struct {
	types []string

	mu      sync.Mutex
	handled []shared.DomainEvent
	err     error
}

// NewMockEventHandler subscribes to types, or to everything when none are given
func NewMockEventHandler(types ...string) *MockEventHandler {
	return &MockEventHandler{types: types}
}

func (h *MockEventHandler) EventTypes() []string { return h.types }

// Handle records event and fails with the error set by SetError
func (h *MockEventHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

// SetError makes later Handle calls fail with err
func (h *MockEventHandler) SetError(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}

// Handled returns a copy of the recorded events
func (h *MockEventHandler) Handled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func (h *MockEventHandler) HandledCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

// WaitForCondition polls condition every interval until it holds or
// timeout passes, and reports the final result
func WaitForCondition(t *testing.T, condition func() bool, timeout, interval time.Duration) bool {
	t.Helper()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.After(timeout)
	for {
		if condition() {
			return true
		}
		select {
		case <-deadline:
			return condition()
		case <-ticker.C:
		}
	}
}

// WaitForEventCount waits until handler has seen at least count events
func WaitForEventCount(t *testing.T, handler *MockEventHandler, count int, timeout time.Duration) bool {
	t.Helper()
	return WaitForCondition(t, func() bool { return handler.HandledCount() >= count }, timeout, 10*time.Millisecond)
}
