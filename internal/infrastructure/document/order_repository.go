package document

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/order"
	"github.com/shopcart/backend/internal/domain/shared"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OrderRepository implements order.OrderRepository on the orders collection
type OrderRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *mongo.Database, timeout time.Duration) *OrderRepository {
	return &OrderRepository{coll: db.Collection(OrdersCollection), timeout: timeout}
}

// Create inserts a new order
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	doc, err := newOrderDocument(o)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	_, err = r.coll.InsertOne(ctx, doc)
	return translateError(ctx, err, "Order")
}

// FindByUser returns the user's orders oldest first
func (r *OrderRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*order.Order, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx,
		bson.M{"user_id": userID.String()},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, translateError(ctx, err, "Order")
	}
	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translateError(ctx, err, "Order")
	}

	orders := make([]*order.Order, 0, len(docs))
	for i := range docs {
		o, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// FindByIdempotencyKey returns the order placed by userID with key
func (r *OrderRepository) FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*order.Order, error) {
	if key == "" {
		return nil, shared.NewNotFoundError("Order")
	}
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var doc orderDocument
	if err := r.coll.FindOne(ctx, bson.M{"user_id": userID.String(), "idempotency_key": key}).Decode(&doc); err != nil {
		return nil, translateError(ctx, err, "Order")
	}
	return doc.toDomain()
}

// Ensure OrderRepository implements order.OrderRepository
var _ order.OrderRepository = (*OrderRepository)(nil)
