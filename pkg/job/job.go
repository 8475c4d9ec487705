package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Job is a named unit of background work carried by a queue message.
// Validate turns the raw message body into the input Perform receives.
type Job interface {
	Name() string
	Validate(payload json.RawMessage) (any, error)
	Perform(ctx context.Context, data any) error
}

// Option configures a typed job built with New.
type Option[T any] func(*typedJob[T])

// WithValidator runs fn on the decoded input before Perform.
//
// Example:
//
//	job.New("send_welcome", send, job.WithValidator(func(p WelcomePayload) error {
//	    if p.Email == "" {
//	        return errors.New("email is required")
//	    }
//	    return nil
//	}))
func WithValidator[T any](fn func(T) error) Option[T] {
	return func(j *typedJob[T]) {
		j.validate = fn
	}
}

// New builds a Job that decodes the message body into T.
// The "job" field of the body is ignored unless T declares it.
//
// Example:
//
//	type WelcomePayload struct {
//	    UserID int    `json:"user_id"`
//	    Email  string `json:"email"`
//	}
//
//	welcome := job.New("send_welcome", func(ctx context.Context, p WelcomePayload) error {
//	    return mailer.SendWelcome(ctx, p.Email)
//	})
func New[T any](name string, perform func(context.Context, T) error, opts ...Option[T]) Job {
	j := &typedJob[T]{name: name, perform: perform}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

type typedJob[T any] struct {
	perform  func(context.Context, T) error
	validate func(T) error
	name     string
}

func (j *typedJob[T]) Name() string {
	return j.name
}

func (j *typedJob[T]) Validate(payload json.RawMessage) (any, error) {
	var in T
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &in); err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
	}
	if j.validate != nil {
		if err := j.validate(in); err != nil {
			return nil, errors.Join(ErrValidationFailed, err)
		}
	}
	return in, nil
}

func (j *typedJob[T]) Perform(ctx context.Context, data any) error {
	in, ok := data.(T)
	if !ok {
		return fmt.Errorf("%w: %s expects %T, got %T", ErrInvalidPayload, j.name, in, data)
	}
	return j.perform(ctx, in)
}
