package kv

import "errors"

var (
	// ErrNotFound is returned by a Store when the key does not exist or has expired.
	ErrNotFound = errors.New("kv: key not found")

	// ErrClosed is returned when a closed store is used.
	ErrClosed = errors.New("kv: store closed")

	// ErrEmptyKey is returned when an operation receives an empty key.
	ErrEmptyKey = errors.New("kv: key is empty")

	// ErrInvalidCursor is returned when a list cursor cannot be decoded.
	ErrInvalidCursor = errors.New("kv: invalid list cursor")

	// ErrMarshal is returned when a value cannot be encoded as JSON.
	ErrMarshal = errors.New("kv: failed to marshal value")

	// ErrUnmarshal is returned when a stored value cannot be decoded.
	ErrUnmarshal = errors.New("kv: failed to unmarshal value")
)
