package event

import (
	"context"
	"fmt"

	"github.com/shopcart/backend/internal/domain/order"
	"github.com/shopcart/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OrderLogHandler records placed orders in the service log. It is the
// in-process consumer used when events are not sent to a broker.
type OrderLogHandler struct {
	logger *zap.Logger
}

// NewOrderLogHandler creates a new OrderLogHandler
func NewOrderLogHandler(logger *zap.Logger) *OrderLogHandler {
	return &OrderLogHandler{logger: logger}
}

// Handle logs an order.placed event
func (h *OrderLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	placed, ok := event.(*order.OrderPlacedEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T for %s", event, event.EventType())
	}
	h.logger.Info("order placed event",
		zap.String("event_id", placed.EventID().String()),
		zap.String("order_id", placed.OrderID.String()),
		zap.String("user_id", placed.UserID.String()),
		zap.Int("lines", len(placed.Lines)),
		zap.String("total", placed.TotalAmount.String()),
	)
	return nil
}

// EventTypes returns the event types this handler consumes
func (h *OrderLogHandler) EventTypes() []string {
	return []string{order.EventTypeOrderPlaced}
}
