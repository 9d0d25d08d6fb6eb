package order

import (
	"context"

	"github.com/shopcart/backend/internal/domain/account"
	"github.com/shopcart/backend/internal/domain/order"
	"github.com/shopcart/backend/internal/domain/shared"
)

// TransactionScope provides transactional access to the repositories an
// order placement touches. Everything done through the repositories handed
// to fn is committed together or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. fn must use the
	// ctx it is given; some stores bind the transaction to it.
	Execute(ctx context.Context, fn func(ctx context.Context, repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides repositories bound to one transaction
type TransactionalRepositories interface {
	// UserRepo returns the user repository scoped to the current transaction
	UserRepo() account.UserRepository
	// OrderRepo returns the order repository scoped to the current transaction
	OrderRepo() order.OrderRepository
	// Outbox returns the outbox writer scoped to the current transaction
	Outbox() shared.OutboxEventSaver
}
