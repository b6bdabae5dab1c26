package lro

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/durablequeue/lro/internal/adapter/observability"
)

// RateLimiter gates producer admission before a task ever reaches the
// store. A nil RateLimiter (the zero value of Broker) always allows.
type RateLimiter interface {
	Allow(ctx context.Context, key string, cost int64) (allowed bool, retryAfter time.Duration, err error)
}

// Broker is the producer-facing facade in front of a Queue: it applies an
// optional rate limit before delegating to Offer and hands back an
// Operation handle for the result. See §4.2.
type Broker[T Task] struct {
	queue   *Queue[T]
	limiter RateLimiter
}

// BrokerOption configures a Broker.
type BrokerOption[T Task] func(*Broker[T])

// WithRateLimiter attaches a producer-side admission gate. A denied request
// never touches the store: no list push, no hash write.
func WithRateLimiter[T Task](l RateLimiter) BrokerOption[T] {
	return func(b *Broker[T]) { b.limiter = l }
}

// NewBroker constructs a Broker delegating to queue.
func NewBroker[T Task](queue *Queue[T], opts ...BrokerOption[T]) *Broker[T] {
	b := &Broker[T]{queue: queue}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Enqueue admits item for processing, subject to the broker's rate limit,
// and returns an Operation handle for the created operation. The handle
// intentionally carries only operation_id and done=false — metadata,
// response, error, and timestamps are left zero-valued so clients
// re-hydrate them by polling rather than trusting this snapshot.
func (b *Broker[T]) Enqueue(ctx context.Context, item T, lctx Context) (Operation, error) {
	if b.limiter != nil {
		key := b.queue.name
		allowed, retryAfter, err := b.limiter.Allow(ctx, key, 1)
		if err != nil {
			// The limiter fails open on its own store errors (allowed is
			// already true in that case); log and fall through rather than
			// deny admission because the rate limiter's backing store hiccuped.
			slog.Warn("rate limiter error, admitting by its fail-open result", slog.String("queue", key), slog.Any("error", err))
		}
		if !allowed {
			observability.RecordRateLimited(key)
			qerr := rateLimitedErr(key)
			qerr.Msg = fmt.Sprintf("%s (retry after %s)", qerr.Msg, retryAfter)
			return Operation{}, qerr
		}
	}

	id, err := b.queue.Offer(ctx, item, lctx)
	if err != nil {
		return Operation{}, err
	}
	return Operation{OperationID: id, Done: false}, nil
}

// Cancel is not implemented: cooperative cancellation of an in-flight task
// requires a worker-side contract this package does not define. Callers
// that need it today should complete the operation with a canceled status
// from the worker side instead.
func (b *Broker[T]) Cancel(ctx context.Context, operationID string) error {
	return internalErr("Cancel is not implemented")
}
