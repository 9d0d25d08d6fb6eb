package document

import (
	"context"
	"time"

	apporder "github.com/shopcart/backend/internal/application/order"
	"github.com/shopcart/backend/internal/domain/account"
	"github.com/shopcart/backend/internal/domain/order"
	"github.com/shopcart/backend/internal/domain/shared"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// TransactionScope runs order placement in a MongoDB session transaction.
// The whole transaction, commit included, is bounded by timeout.
type TransactionScope struct {
	db      *mongo.Database
	timeout time.Duration
	outbox  shared.OutboxBinder
}

// NewTransactionScope creates a new TransactionScope
func NewTransactionScope(db *mongo.Database, timeout time.Duration, outbox shared.OutboxBinder) *TransactionScope {
	return &TransactionScope{db: db, timeout: timeout, outbox: outbox}
}

// Execute runs fn inside a transaction. Repositories handed to fn must be
// called with the ctx fn receives, which carries the session.
func (s *TransactionScope) Execute(ctx context.Context, fn func(ctx context.Context, repos apporder.TransactionalRepositories) error) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	session, err := s.db.Client().StartSession()
	if err != nil {
		return translateError(ctx, err, "Order")
	}
	defer session.EndSession(context.Background())

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	repos := &mongoTransactionalRepositories{db: s.db, outbox: s.outbox}
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, repos)
	}, txnOpts)
	return translateError(ctx, err, "Order")
}

// mongoTransactionalRepositories hands out repositories without their own
// timeout. The session travels in the context passed to each call.
type mongoTransactionalRepositories struct {
	db     *mongo.Database
	outbox shared.OutboxBinder
}

// UserRepo returns the user repository
func (r *mongoTransactionalRepositories) UserRepo() account.UserRepository {
	return NewUserRepository(r.db, 0)
}

// OrderRepo returns the order repository
func (r *mongoTransactionalRepositories) OrderRepo() order.OrderRepository {
	return NewOrderRepository(r.db, 0)
}

// Outbox returns the outbox writer
func (r *mongoTransactionalRepositories) Outbox() shared.OutboxEventSaver {
	return r.outbox.Bind(NewOutboxRepository(r.db, 0))
}

// Ensure TransactionScope implements TransactionScope
var _ apporder.TransactionScope = (*TransactionScope)(nil)

// Ensure mongoTransactionalRepositories implements TransactionalRepositories
var _ apporder.TransactionalRepositories = (*mongoTransactionalRepositories)(nil)
