// Package waiter implements the client-side poll loop that waits for a
// long-running operation to reach its terminal state.
package waiter

import (
	"context"
	"time"

	"github.com/durablequeue/lro/internal/lro"
	"github.com/durablequeue/lro/internal/rpc"
)

// DefaultPollInterval is the fixed cadence mandated for this core. Adaptive
// backoff is an explicit non-goal — do not make this configurable per call.
const DefaultPollInterval = 1 * time.Second

// Waiter polls an OperationsClient for one operation's terminal state.
type Waiter struct {
	client       rpc.OperationsClient
	pollInterval time.Duration
}

// New constructs a Waiter. pollInterval <= 0 falls back to DefaultPollInterval.
func New(client rpc.OperationsClient, pollInterval time.Duration) *Waiter {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Waiter{client: client, pollInterval: pollInterval}
}

// Wait polls Get for operationID until it reports done, ctx is canceled, or
// Get returns a transport error. At most one Get call is outstanding at any
// time; a transport error is returned to the caller unmasked — it is never
// retried as if it were a transient condition. Cancellation is cooperative:
// it is only observed at the sleep boundary between polls, matching the
// fixed poll cadence this loop is specified to have.
func (w *Waiter) Wait(ctx context.Context, operationID string) (lro.Operation, error) {
	for {
		op, err := w.client.Get(ctx, rpc.GetOperationRequest{OperationID: operationID})
		if err != nil {
			return lro.Operation{}, err
		}
		if op.Done {
			return op, nil
		}

		select {
		case <-ctx.Done():
			return lro.Operation{}, ctx.Err()
		case <-time.After(w.pollInterval):
		}
	}
}
