package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopcart/backend/internal/domain/shared"
	"go.mongodb.org/mongo-driver/mongo"
)

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// translateError maps driver errors onto the domain taxonomy
func translateError(ctx context.Context, err error, resource string) error {
	if err == nil {
		return nil
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}

	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return shared.NewNotFoundError(resource)
	case mongo.IsDuplicateKeyError(err):
		return shared.WrapDomainError(shared.CodeAlreadyExists, resource+" already exists", err)
	case hasLabel(err, "TransientTransactionError"):
		// a write conflict with a concurrent transaction
		return shared.WrapDomainError(shared.CodeConcurrencyConflict, "Resource was modified by another process", err)
	case mongo.IsTimeout(err), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), ctx.Err() != nil:
		return shared.WrapDomainError(shared.CodeTransient, "Storage did not respond in time", err)
	case mongo.IsNetworkError(err), errors.Is(err, mongo.ErrClientDisconnected):
		return shared.WrapDomainError(shared.CodeTransient, "Storage is unavailable", err)
	}
	return fmt.Errorf("%s storage: %w", strings.ToLower(resource), err)
}

func hasLabel(err error, label string) bool {
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorLabel(label)
	}
	return false
}
