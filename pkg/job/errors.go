package job

import "errors"

// Job errors.
var (
	// ErrJobNotRegistered is returned when a message names a job that is
	// not registered with the Manager.
	ErrJobNotRegistered = errors.New("job: not registered")

	// ErrMissingJobName is returned when a message body has no "job" field.
	ErrMissingJobName = errors.New("job: message has no job name")

	// ErrInvalidPayload is returned when a payload is not a JSON object or
	// cannot be decoded into the job's input type.
	ErrInvalidPayload = errors.New("job: invalid payload")

	// ErrValidationFailed wraps errors returned by a job validator.
	ErrValidationFailed = errors.New("job: validation failed")

	// ErrEnqueueFailed is returned when a job cannot be handed to the queue.
	ErrEnqueueFailed = errors.New("job: enqueue failed")
)
