package cache

import "errors"

var (
	// ErrNoCallback is returned by Fetch when no compute function is given.
	ErrNoCallback = errors.New("no callback function provided")

	// ErrMarshal is returned when a computed value cannot be encoded as JSON.
	ErrMarshal = errors.New("cache: failed to marshal value")

	// ErrUnmarshal is returned when a cached value cannot be decoded into the requested type.
	ErrUnmarshal = errors.New("cache: failed to unmarshal value")
)
