package event

import (
	"context"
	"time"

	"github.com/shopcart/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DedupHandler skips events the wrapped handler already handled. The outbox
// relay delivers at least once, so a redelivered event reaches handlers
// again after a partial failure.
type DedupHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	ttl     time.Duration
	logger  *zap.Logger
}

// NewDedupHandler wraps handler. A zero ttl uses the default idempotency TTL.
func NewDedupHandler(handler shared.EventHandler, store shared.IdempotencyStore, ttl time.Duration, logger *zap.Logger) *DedupHandler {
	if ttl <= 0 {
		ttl = shared.DefaultProcessedEventTTL
	}
	return &DedupHandler{handler: handler, store: store, ttl: ttl, logger: logger}
}

// EventTypes returns the wrapped handler's event types
func (h *DedupHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle runs the wrapped handler unless the event was already handled.
// The event is marked only after the handler succeeds, so a failed attempt
// is retried on redelivery. Store failures never drop an event.
func (h *DedupHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	eventID := event.EventID().String()

	done, err := h.store.IsProcessed(ctx, eventID)
	if err != nil {
		h.logger.Warn("dedup check failed, handling anyway",
			zap.String("event_id", eventID),
			zap.String("event_type", event.EventType()),
			zap.Error(err))
	} else if done {
		h.logger.Debug("skipping duplicate event",
			zap.String("event_id", eventID),
			zap.String("event_type", event.EventType()))
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		return err
	}

	if _, err := h.store.MarkProcessed(ctx, eventID, h.ttl); err != nil {
		h.logger.Warn("failed to mark event as processed",
			zap.String("event_id", eventID),
			zap.Error(err))
	}
	return nil
}

// Ensure DedupHandler implements shared.EventHandler
var _ shared.EventHandler = (*DedupHandler)(nil)
