package ratelimit

import "errors"

var (
	ErrInvalidKey    = errors.New("ratelimit: key is required")
	ErrCounterFailed = errors.New("ratelimit: counter failed")
)
