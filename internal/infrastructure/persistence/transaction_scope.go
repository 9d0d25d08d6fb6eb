package persistence

import (
	"context"
	"time"

	apporder "github.com/shopcart/backend/internal/application/order"
	"github.com/shopcart/backend/internal/domain/account"
	"github.com/shopcart/backend/internal/domain/order"
	"github.com/shopcart/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormTransactionScope implements order placement transactions using GORM.
// The whole transaction, commit included, is bounded by timeout.
type GormTransactionScope struct {
	db      *gorm.DB
	timeout time.Duration
	outbox  shared.OutboxBinder
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB, timeout time.Duration, outbox shared.OutboxBinder) *GormTransactionScope {
	return &GormTransactionScope{db: db, timeout: timeout, outbox: outbox}
}

// Execute runs fn within a database transaction. If fn returns an error the
// transaction is rolled back, otherwise it is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(ctx context.Context, repos apporder.TransactionalRepositories) error) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormTransactionalRepositories{tx: tx, outbox: s.outbox})
	})
	return translateError(ctx, err, "Order")
}

// gormTransactionalRepositories hands out repositories bound to tx. The
// scope's deadline already covers them, so they carry no timeout of their own.
type gormTransactionalRepositories struct {
	tx     *gorm.DB
	outbox shared.OutboxBinder
}

// UserRepo returns the user repository scoped to the current transaction
func (r *gormTransactionalRepositories) UserRepo() account.UserRepository {
	return NewGormUserRepository(r.tx, 0)
}

// OrderRepo returns the order repository scoped to the current transaction
func (r *gormTransactionalRepositories) OrderRepo() order.OrderRepository {
	return NewGormOrderRepository(r.tx, 0)
}

// Outbox returns the outbox writer scoped to the current transaction
func (r *gormTransactionalRepositories) Outbox() shared.OutboxEventSaver {
	return r.outbox.Bind(NewGormOutboxRepository(r.tx, 0))
}

// Ensure GormTransactionScope implements TransactionScope
var _ apporder.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ apporder.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
