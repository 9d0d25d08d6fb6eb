package persistence

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/shopcart/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// withTimeout bounds a single persistence call. A non-positive timeout
// leaves the caller's deadline in charge.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// translateError maps driver and GORM errors onto the domain taxonomy.
// resource names the missing thing for not-found errors. Once ctx has ended
// any driver error counts as a timeout, whatever the driver called it.
func translateError(ctx context.Context, err error, resource string) error {
	if err == nil {
		return nil
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.NewNotFoundError(resource)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), ctx.Err() != nil:
		return shared.WrapDomainError(shared.CodeTransient, "Storage did not respond in time", err)
	case isUniqueViolation(err):
		return shared.WrapDomainError(shared.CodeAlreadyExists, resource+" already exists", err)
	case isConnectionError(err):
		return shared.WrapDomainError(shared.CodeTransient, "Storage is unavailable", err)
	}
	return fmt.Errorf("%s storage: %w", strings.ToLower(resource), err)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
