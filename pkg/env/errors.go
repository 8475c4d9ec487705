package env

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyNotFound is returned when a key is missing or empty and no
	// fallback was given.
	ErrKeyNotFound = errors.New("env: key not found")

	// ErrParse is returned when variables cannot be decoded into a struct.
	ErrParse = errors.New("env: parse failed")
)

// KeyError names the missing key.
type KeyError struct {
	Key string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("Key not found: %s", e.Key)
}

func (e *KeyError) Unwrap() error {
	return ErrKeyNotFound
}
