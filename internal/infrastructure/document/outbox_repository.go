package document

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/shared"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OutboxRepository implements shared.OutboxRepository on the outbox collection
type OutboxRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewOutboxRepository creates a new OutboxRepository
func NewOutboxRepository(db *mongo.Database, timeout time.Duration) *OutboxRepository {
	return &OutboxRepository{coll: db.Collection(OutboxCollection), timeout: timeout}
}

// Save persists one or more outbox entries
func (r *OutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	docs := make([]interface{}, len(entries))
	for i, e := range entries {
		docs[i] = newOutboxDocument(e)
	}
	_, err := r.coll.InsertMany(ctx, docs)
	return translateError(ctx, err, "Outbox entry")
}

// FindPending retrieves pending entries up to the specified limit
func (r *OutboxRepository) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	return r.find(ctx,
		bson.M{"status": shared.OutboxStatusPending},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}).SetLimit(int64(limit)),
	)
}

// FindRetryable retrieves failed entries that are due for retry
func (r *OutboxRepository) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	return r.find(ctx,
		bson.M{"status": shared.OutboxStatusFailed, "next_retry_at": bson.M{"$lte": before}},
		options.Find().SetSort(bson.D{{Key: "next_retry_at", Value: 1}}).SetLimit(int64(limit)),
	)
}

// MarkProcessing claims entries one by one. Each claim is a single atomic
// document update, so concurrent relays never win the same entry.
func (r *OutboxRepository) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	claimable := bson.A{shared.OutboxStatusPending, shared.OutboxStatusFailed}
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)

	claimed := make([]*shared.OutboxEntry, 0, len(ids))
	for _, id := range ids {
		var doc outboxDocument
		err := r.coll.FindOneAndUpdate(ctx,
			bson.M{"_id": id.String(), "status": bson.M{"$in": claimable}},
			bson.M{"$set": bson.M{"status": shared.OutboxStatusProcessing, "updated_at": time.Now()}},
			after,
		).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return nil, translateError(ctx, err, "Outbox entry")
		}
		entry, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		claimed = append(claimed, entry)
	}
	return claimed, nil
}

// Update updates an existing outbox entry
func (r *OutboxRepository) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	entry.UpdatedAt = time.Now()
	doc := newOutboxDocument(entry)
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return translateError(ctx, err, "Outbox entry")
	}
	if res.MatchedCount == 0 {
		return shared.NewNotFoundError("Outbox entry")
	}
	return nil
}

// DeleteOlderThan deletes sent entries processed before the given time
func (r *OutboxRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{
		"status":       shared.OutboxStatusSent,
		"processed_at": bson.M{"$lt": before},
	})
	if err != nil {
		return 0, translateError(ctx, err, "Outbox entry")
	}
	return res.DeletedCount, nil
}

func (r *OutboxRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*shared.OutboxEntry, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, translateError(ctx, err, "Outbox entry")
	}
	var docs []outboxDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translateError(ctx, err, "Outbox entry")
	}

	entries := make([]*shared.OutboxEntry, 0, len(docs))
	for i := range docs {
		e, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Ensure OutboxRepository implements shared.OutboxRepository
var _ shared.OutboxRepository = (*OutboxRepository)(nil)
