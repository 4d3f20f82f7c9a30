package worker

import "errors"

// Sentinel errors returned by pool operations.
var (
	// ErrPoolNotStarted means Submit was called before Start.
	ErrPoolNotStarted = errors.New("worker pool not started")

	// ErrPoolStopped means the pool has been closed.
	ErrPoolStopped = errors.New("worker pool stopped")

	// ErrPoolAlreadyStarted means Start was called twice.
	ErrPoolAlreadyStarted = errors.New("worker pool already started")

	// ErrNilProcessor is the panic value for a nil processor function.
	ErrNilProcessor = errors.New("processor function cannot be nil")
)
