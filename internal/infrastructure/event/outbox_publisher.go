package event

import (
	"context"

	"github.com/shopcart/backend/internal/domain/shared"
)

// OutboxPublisher turns domain events into outbox entries. It is bound to a
// transaction-scoped outbox repository so the entries commit together with
// the state change that raised them.
type OutboxPublisher struct {
	serializer *EventSerializer
}

// NewOutboxPublisher creates a new outbox publisher
func NewOutboxPublisher(serializer *EventSerializer) *OutboxPublisher {
	return &OutboxPublisher{serializer: serializer}
}

// Bind returns an event saver writing to repo
func (p *OutboxPublisher) Bind(repo shared.OutboxRepository) shared.OutboxEventSaver {
	return &OutboxWriter{serializer: p.serializer, repo: repo}
}

// OutboxWriter saves events through one outbox repository
type OutboxWriter struct {
	serializer *EventSerializer
	repo       shared.OutboxRepository
}

// SaveEvents serializes events and stores them as pending outbox entries
func (w *OutboxWriter) SaveEvents(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		payload, err := w.serializer.Serialize(event)
		if err != nil {
			return err
		}
		entries = append(entries, shared.NewOutboxEntry(event, payload))
	}
	return w.repo.Save(ctx, entries...)
}

// Ensure OutboxPublisher implements OutboxBinder
var _ shared.OutboxBinder = (*OutboxPublisher)(nil)

// Ensure OutboxWriter implements OutboxEventSaver
var _ shared.OutboxEventSaver = (*OutboxWriter)(nil)
