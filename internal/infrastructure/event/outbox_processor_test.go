package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/order"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockOutboxRepository keeps entries in memory
type mockOutboxRepository struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*shared.OutboxEntry
	saveErr error
	deleted int64
}

func newMockOutboxRepository() *mockOutboxRepository {
	return &mockOutboxRepository{entries: make(map[uuid.UUID]*shared.OutboxEntry)}
}

func (r *mockOutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return nil
}

func (r *mockOutboxRepository) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	return r.find(limit, func(e *shared.OutboxEntry) bool { return e.Status == shared.OutboxStatusPending }), nil
}

func (r *mockOutboxRepository) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	return r.find(limit, func(e *shared.OutboxEntry) bool {
		return e.Status == shared.OutboxStatusFailed && e.NextRetryAt != nil && !e.NextRetryAt.After(before)
	}), nil
}

func (r *mockOutboxRepository) find(limit int, match func(*shared.OutboxEntry) bool) []*shared.OutboxEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*shared.OutboxEntry
	for _, e := range r.entries {
		if match(e) && len(result) < limit {
			copied := *e
			result = append(result, &copied)
		}
	}
	return result
}

func (r *mockOutboxRepository) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*shared.OutboxEntry
	for _, id := range ids {
		e, ok := r.entries[id]
		if !ok || (e.Status != shared.OutboxStatusPending && e.Status != shared.OutboxStatusFailed) {
			continue
		}
		e.Status = shared.OutboxStatusProcessing
		copied := *e
		result = append(result, &copied)
	}
	return result, nil
}

func (r *mockOutboxRepository) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *entry
	r.entries[entry.ID] = &copied
	return nil
}

func (r *mockOutboxRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.entries {
		if e.Status == shared.OutboxStatusSent && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(r.entries, id)
			r.deleted++
		}
	}
	return r.deleted, nil
}

func (r *mockOutboxRepository) status(id uuid.UUID) shared.OutboxStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[id].Status
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu        sync.Mutex
	published []shared.DomainEvent
	err       error
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, events...)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func saveEntry(t *testing.T, repo *mockOutboxRepository) *shared.OutboxEntry {
	t.Helper()
	require.NoError(t, NewOutboxPublisher(NewDefaultSerializer()).Bind(repo).SaveEvents(context.Background(), newPlacedEvent(t)))
	for _, e := range repo.entries {
		return e
	}
	return nil
}

func TestOutboxProcessor_ProcessBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes and marks sent", func(t *testing.T) {
		repo := newMockOutboxRepository()
		entry := saveEntry(t, repo)
		publisher := &recordingPublisher{}
		p := NewOutboxProcessor(repo, publisher, NewDefaultSerializer(), DefaultOutboxProcessorConfig(), zap.NewNop())

		assert.Equal(t, 1, p.ProcessBatch(ctx))
		assert.Equal(t, shared.OutboxStatusSent, repo.status(entry.ID))
		require.Equal(t, 1, publisher.count())
		assert.Equal(t, entry.EventID, publisher.published[0].EventID())
		_, ok := publisher.published[0].(*order.OrderPlacedEvent)
		assert.True(t, ok)

		// nothing left to send
		assert.Equal(t, 0, p.ProcessBatch(ctx))
	})

	t.Run("publish failure schedules a retry", func(t *testing.T) {
		repo := newMockOutboxRepository()
		entry := saveEntry(t, repo)
		publisher := &recordingPublisher{err: errors.New("broker down")}
		p := NewOutboxProcessor(repo, publisher, NewDefaultSerializer(), DefaultOutboxProcessorConfig(), zap.NewNop())

		assert.Equal(t, 0, p.ProcessBatch(ctx))

		stored := repo.entries[entry.ID]
		assert.Equal(t, shared.OutboxStatusFailed, stored.Status)
		assert.Equal(t, 1, stored.RetryCount)
		assert.Equal(t, "broker down", stored.LastError)
		require.NotNil(t, stored.NextRetryAt)

		// due again once the backoff has passed
		past := time.Now().Add(-time.Second)
		stored.NextRetryAt = &past
		publisher.err = nil
		assert.Equal(t, 1, p.ProcessBatch(ctx))
		assert.Equal(t, shared.OutboxStatusSent, repo.status(entry.ID))
	})

	t.Run("unknown event type fails until dead", func(t *testing.T) {
		repo := newMockOutboxRepository()
		entry := saveEntry(t, repo)
		entry.MaxRetries = 1
		p := NewOutboxProcessor(repo, &recordingPublisher{}, NewEventSerializer(), DefaultOutboxProcessorConfig(), zap.NewNop())

		assert.Equal(t, 0, p.ProcessBatch(ctx))
		assert.Equal(t, shared.OutboxStatusDead, repo.status(entry.ID))
		assert.Contains(t, repo.entries[entry.ID].LastError, "unknown event type")
	})
}

func TestOutboxProcessor_StartStop(t *testing.T) {
	repo := newMockOutboxRepository()
	entry := saveEntry(t, repo)
	publisher := &recordingPublisher{}
	p := NewOutboxProcessor(repo, publisher, NewDefaultSerializer(), OutboxProcessorConfig{
		BatchSize:    10,
		PollInterval: 10 * time.Millisecond,
	}, zap.NewNop())

	require.NoError(t, p.Start(context.Background()))
	assert.Eventually(t, func() bool {
		return repo.status(entry.ID) == shared.OutboxStatusSent
	}, time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Stop(stopCtx))
	assert.Equal(t, 1, publisher.count())
}

func TestOutboxProcessor_Cleanup(t *testing.T) {
	repo := newMockOutboxRepository()
	entry := saveEntry(t, repo)
	old := time.Now().Add(-48 * time.Hour)
	entry.Status = shared.OutboxStatusSent
	entry.ProcessedAt = &old

	p := NewOutboxProcessor(repo, &recordingPublisher{}, NewDefaultSerializer(), OutboxProcessorConfig{
		CleanupEnabled:   true,
		CleanupRetention: 24 * time.Hour,
	}, zap.NewNop())
	p.cleanup(context.Background())

	assert.Empty(t, repo.entries)
}

func TestDefaultOutboxProcessorConfig(t *testing.T) {
	config := DefaultOutboxProcessorConfig()

	assert.Equal(t, 100, config.BatchSize)
	assert.Equal(t, 2*time.Second, config.PollInterval)
	assert.True(t, config.CleanupEnabled)
	assert.Equal(t, 7*24*time.Hour, config.CleanupRetention)
	assert.Equal(t, time.Hour, config.CleanupInterval)
}
