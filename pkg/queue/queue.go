package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dmitrymomot/edgekit/pkg/deferred"
)

// EnqueueOption configures an Enqueue call.
type EnqueueOption func(*SendOptions)

// WithDelay postpones delivery by d.
func WithDelay(d time.Duration) EnqueueOption {
	return func(o *SendOptions) {
		o.Delay = d
	}
}

// WithContentType overrides the default json content type.
func WithContentType(ct ContentType) EnqueueOption {
	return func(o *SendOptions) {
		o.ContentType = ct
	}
}

// Queue enqueues payloads for later processing. Sends run through the
// deferred hook so the caller does not wait on the broker.
type Queue struct {
	producer Producer
	deferrer deferred.Deferrer
}

// New wraps a Producer.
func New(p Producer, d deferred.Deferrer) *Queue {
	return &Queue{producer: p, deferrer: d}
}

// Binding returns the underlying producer.
func (q *Queue) Binding() Producer {
	return q.producer
}

// Enqueue encodes payload as JSON and schedules the send. Encoding errors are
// returned immediately; send failures are logged by the deferred hook.
func (q *Queue) Enqueue(ctx context.Context, payload any, opts ...EnqueueOption) error {
	body, o, err := encode(payload, opts)
	if err != nil {
		return err
	}
	q.deferrer.Go(func(ctx context.Context) error {
		return q.producer.Send(ctx, body, o)
	})
	return nil
}

// EnqueueBatch schedules one SendBatch call for all payloads.
func (q *Queue) EnqueueBatch(ctx context.Context, payloads []any, opts ...EnqueueOption) error {
	if len(payloads) == 0 {
		return nil
	}
	msgs := make([]OutgoingMessage, 0, len(payloads))
	for _, p := range payloads {
		body, o, err := encode(p, opts)
		if err != nil {
			return err
		}
		msgs = append(msgs, OutgoingMessage{Body: body, Options: o})
	}
	q.deferrer.Go(func(ctx context.Context) error {
		return q.producer.SendBatch(ctx, msgs)
	})
	return nil
}

func encode(payload any, opts []EnqueueOption) ([]byte, SendOptions, error) {
	o := SendOptions{ContentType: ContentTypeJSON}
	for _, opt := range opts {
		opt(&o)
	}

	var body []byte
	switch v := payload.(type) {
	case json.RawMessage:
		body = v
	case []byte:
		body = v
		if o.ContentType == ContentTypeJSON {
			o.ContentType = ContentTypeBytes
		}
	case string:
		if o.ContentType == ContentTypeText {
			body = []byte(v)
			break
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, o, errors.Join(ErrMarshal, err)
		}
		body = b
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, o, errors.Join(ErrMarshal, err)
		}
		body = b
	}
	if len(body) == 0 {
		return nil, o, ErrEmptyBody
	}
	return body, o, nil
}
