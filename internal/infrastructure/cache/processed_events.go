package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopcart/backend/internal/domain/shared"
)

const defaultProcessedPrefix = "event:processed:"

// RedisProcessedEvents remembers processed event IDs in Redis so that every
// instance skips an event any of them already handled
type RedisProcessedEvents struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisProcessedEvents creates a store on an existing client
func NewRedisProcessedEvents(client redis.UniversalClient, keyPrefix string) *RedisProcessedEvents {
	if keyPrefix == "" {
		keyPrefix = defaultProcessedPrefix
	}
	return &RedisProcessedEvents{client: client, keyPrefix: keyPrefix}
}

// MarkProcessed returns true if eventID was not marked before. SET NX makes
// the check and the mark one step.
func (s *RedisProcessedEvents) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+eventID, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark event as processed: %w", err)
	}
	return ok, nil
}

// IsProcessed checks if an event has already been processed
func (s *RedisProcessedEvents) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check if event is processed: %w", err)
	}
	return n > 0, nil
}

// Close is a no-op; the client is owned by the caller
func (s *RedisProcessedEvents) Close() error {
	return nil
}

// MemoryProcessedEvents keeps processed event IDs in process memory.
// Expired IDs are swept while marking, so no background goroutine is needed.
type MemoryProcessedEvents struct {
	mu        sync.Mutex
	expiry    map[string]time.Time
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryProcessedEvents creates an empty in-memory store
func NewMemoryProcessedEvents() *MemoryProcessedEvents {
	return &MemoryProcessedEvents{expiry: make(map[string]time.Time), now: time.Now}
}

// MarkProcessed returns true if eventID was not marked or its mark expired
func (s *MemoryProcessedEvents) MarkProcessed(_ context.Context, eventID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) > time.Minute {
		for id, exp := range s.expiry {
			if now.After(exp) {
				delete(s.expiry, id)
			}
		}
		s.lastSweep = now
	}

	if exp, ok := s.expiry[eventID]; ok && now.Before(exp) {
		return false, nil
	}
	s.expiry[eventID] = now.Add(ttl)
	return true, nil
}

// IsProcessed checks if an event has already been processed
func (s *MemoryProcessedEvents) IsProcessed(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.expiry[eventID]
	return ok && s.now().Before(exp), nil
}

// Size returns the number of remembered IDs, expired ones included
func (s *MemoryProcessedEvents) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expiry)
}

// Close releases nothing
func (s *MemoryProcessedEvents) Close() error {
	return nil
}

var (
	_ shared.IdempotencyStore = (*RedisProcessedEvents)(nil)
	_ shared.IdempotencyStore = (*MemoryProcessedEvents)(nil)
)
