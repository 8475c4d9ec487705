package deferred

import "errors"

var (
	// ErrTimeout is returned by Wait when deferred work is still running after the ceiling.
	ErrTimeout = errors.New("deferred: wait ceiling reached")

	// ErrPanic wraps a value recovered from a panicking deferred function.
	ErrPanic = errors.New("deferred: panic recovered")
)
