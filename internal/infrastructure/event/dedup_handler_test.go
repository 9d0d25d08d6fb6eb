package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mapStore struct {
	marked map[string]bool
	err    error
}

func (s *mapStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	isNew := !s.marked[eventID]
	s.marked[eventID] = true
	return isNew, nil
}

func (s *mapStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	return s.marked[eventID], s.err
}

func (s *mapStore) Close() error { return nil }

func TestDedupHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("redelivered event is handled once", func(t *testing.T) {
		inner := newTestHandler("test.event")
		h := NewDedupHandler(inner, &mapStore{marked: map[string]bool{}}, 0, zap.NewNop())
		event := newTestEvent("test.event")

		require.NoError(t, h.Handle(ctx, event))
		require.NoError(t, h.Handle(ctx, event))
		assert.Len(t, inner.handled, 1)
		assert.Equal(t, []string{"test.event"}, h.EventTypes())
	})

	t.Run("failed attempt is retried on redelivery", func(t *testing.T) {
		inner := newTestHandler()
		inner.err = errors.New("downstream unavailable")
		h := NewDedupHandler(inner, &mapStore{marked: map[string]bool{}}, time.Hour, zap.NewNop())
		event := newTestEvent("test.event")

		assert.Error(t, h.Handle(ctx, event))
		inner.err = nil
		require.NoError(t, h.Handle(ctx, event))
		assert.Len(t, inner.handled, 2)
	})

	t.Run("store failure does not drop the event", func(t *testing.T) {
		inner := newTestHandler()
		h := NewDedupHandler(inner, &mapStore{marked: map[string]bool{}, err: errors.New("redis down")}, time.Hour, zap.NewNop())

		require.NoError(t, h.Handle(ctx, newTestEvent("test.event")))
		assert.Len(t, inner.handled, 1)
	})
}
