package shared

import (
	"context"
	"time"
)

// DefaultProcessedEventTTL is how long consumers remember a handled event ID.
// It must outlive the relay's retry window.
const DefaultProcessedEventTTL = 24 * time.Hour

// IdempotencyStore records event IDs a consumer has already handled, so a
// redelivered outbox entry has no second effect
type IdempotencyStore interface {
	// MarkProcessed reports true only for the first caller to mark eventID
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	Close() error
}
