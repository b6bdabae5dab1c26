// Package rpc declares the client-side contract for the external
// Operations service a Poll Waiter talks to. This package defines the
// interface only; no transport (gRPC, HTTP, or otherwise) is implemented
// here — wiring a concrete client is outside this module's scope.
package rpc

import (
	"context"

	"github.com/durablequeue/lro/internal/lro"
)

// GetOperationRequest identifies the operation a waiter wants the current
// state of.
type GetOperationRequest struct {
	OperationID string
}

// OperationsClient is the subset of the external RPC surface a Poll Waiter
// needs. Any transport a caller wires up — gRPC, HTTP/JSON, or an in-process
// shim over a Queue for tests — can satisfy this interface.
type OperationsClient interface {
	Get(ctx context.Context, req GetOperationRequest) (lro.Operation, error)
}
