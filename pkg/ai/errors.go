package ai

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig = errors.New("ai: invalid configuration")
	ErrEmptyModel    = errors.New("ai: model is required")
	ErrRequestFailed = errors.New("ai: request failed")
	ErrDecode        = errors.New("ai: failed to decode output")
)

// APIError is a non-successful response from the inference API.
type APIError struct {
	Message    string
	StatusCode int
	Code       int
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("ai: api error %d (status %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("ai: api error (status %d): %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return ErrRequestFailed
}
