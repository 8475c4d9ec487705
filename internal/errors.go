package internal

import (
	"errors"
	"fmt"
)

var (
	ErrContextMissing = errors.New("edgekit: no event context")
	ErrBindingMissing = errors.New("edgekit: binding not configured")
)

// ContextError is returned by accessors called outside an event scope, or
// by request-only accessors called while handling a non-HTTP event.
type ContextError struct {
	Accessor string
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("You must run %q from inside an Edge-first context.", e.Accessor+"()")
}

func (e *ContextError) Unwrap() error {
	return ErrContextMissing
}

// ConfigError is returned when the event scope exists but the binding the
// accessor depends on was not configured.
type ConfigError struct {
	Binding Binding
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("Configure %s in your wrangler.toml file.", e.Binding)
}

func (e *ConfigError) Unwrap() error {
	return ErrBindingMissing
}

// ErrNoQueueHandler is returned for queue batches when neither jobs nor a
// queue handler were configured. The batch is retried.
var ErrNoQueueHandler = errors.New("edgekit: no queue handler configured")
