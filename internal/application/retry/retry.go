package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopcart/backend/internal/domain/shared"
)

// Observer is told about conflict retries. Implementations must be safe
// for concurrent use.
type Observer interface {
	ConflictRetried(ctx context.Context)
	ConflictsExhausted(ctx context.Context)
}

// Policy bounds how often an optimistic-lock conflict is retried
type Policy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Observer        Observer // optional
}

// DefaultPolicy returns the policy used when none is configured
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:      5,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     200 * time.Millisecond,
	}
}

// OnConflict runs op and retries it with jittered exponential backoff while
// it fails with shared.ErrConcurrencyConflict. Any other error is returned
// as is. Timeouts are never retried: a timed out write may have been applied.
//
// When retries run out, or ctx ends while waiting, the error is Transient.
func (p Policy) OnConflict(ctx context.Context, op func() error) error {
	var lastConflict error

	err := backoff.RetryNotify(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			lastConflict = err
			return err
		}
		return backoff.Permanent(err)
	}, p.backOff(ctx), func(error, time.Duration) {
		if p.Observer != nil {
			p.Observer.ConflictRetried(ctx)
		}
	})

	if err == nil {
		return nil
	}
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		p.exhausted(ctx)
		return shared.WrapDomainError(shared.CodeTransient, "Too much contention, please retry", err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil && lastConflict != nil && errors.Is(err, ctxErr) {
		p.exhausted(ctx)
		return shared.WrapDomainError(shared.CodeTransient, "Request deadline exceeded while retrying", lastConflict)
	}
	return err
}

func (p Policy) exhausted(ctx context.Context) {
	if p.Observer != nil {
		p.Observer.ConflictsExhausted(context.WithoutCancel(ctx))
	}
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	eb.MaxInterval = p.MaxInterval
	eb.MaxElapsedTime = 0
	if eb.InitialInterval <= 0 {
		eb.InitialInterval = DefaultPolicy().InitialInterval
	}
	if eb.MaxInterval < eb.InitialInterval {
		eb.MaxInterval = eb.InitialInterval
	}
	eb.Reset()

	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)
}
