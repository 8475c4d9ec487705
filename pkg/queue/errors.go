package queue

import "errors"

var (
	ErrClosed         = errors.New("queue: closed")
	ErrEmptyBody      = errors.New("queue: empty message body")
	ErrMarshal        = errors.New("queue: failed to marshal payload")
	ErrSendFailed     = errors.New("queue: send failed")
	ErrReceiveFailed  = errors.New("queue: receive failed")
	ErrInvalidConfig  = errors.New("queue: invalid configuration")
	ErrPoolRequired   = errors.New("queue: pool is required")
	ErrAlreadyRunning = errors.New("queue: consumer already running")
)
