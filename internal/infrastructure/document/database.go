// Package document stores users, orders, products and the outbox in
// MongoDB. Order placement runs in a session transaction, which needs a
// replica set or sharded cluster.
package document

import (
	"context"
	"fmt"
	"time"

	"github.com/shopcart/backend/internal/infrastructure/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	UsersCollection    = "users"
	OrdersCollection   = "orders"
	ProductsCollection = "products"
	OutboxCollection   = "outbox"
)

// Database holds the MongoDB client and the application database
type Database struct {
	Client    *mongo.Client
	DB        *mongo.Database
	OpTimeout time.Duration
}

// Connect opens a client, verifies it with a ping and ensures indexes
func Connect(ctx context.Context, cfg *config.MongoConfig, opTimeout time.Duration) (*Database, error) {
	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	d := &Database{Client: client, DB: client.Database(cfg.Database), OpTimeout: opTimeout}
	if err := d.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	if err := d.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return d, nil
}

// EnsureIndexes creates the indexes the repositories rely on
func (d *Database) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("idx_users_email")},
		},
		OrdersCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}}, Options: options.Index().SetName("idx_orders_user_created")},
			{
				Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "idempotency_key", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetName("idx_orders_user_idempotency").
					SetPartialFilterExpression(bson.M{"idempotency_key": bson.M{"$type": "string"}}),
			},
		},
		OutboxCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}, Options: options.Index().SetName("idx_outbox_status_created")},
			{Keys: bson.D{{Key: "next_retry_at", Value: 1}}, Options: options.Index().SetName("idx_outbox_next_retry")},
		},
		ProductsCollection: {
			{Keys: bson.D{{Key: "category", Value: 1}}, Options: options.Index().SetName("idx_products_category")},
		},
	}

	for coll, models := range indexes {
		if _, err := d.DB.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// Ping checks that the primary is reachable
func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, d.OpTimeout)
	defer cancel()
	return d.Client.Ping(ctx, nil)
}

// Close disconnects the client
func (d *Database) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}
