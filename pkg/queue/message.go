package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// ContentType tells consumers how a body was encoded.
type ContentType string

// Content types understood by the platform queues.
const (
	ContentTypeJSON  ContentType = "json"
	ContentTypeText  ContentType = "text"
	ContentTypeBytes ContentType = "bytes"
	ContentTypeV8    ContentType = "v8"
)

// SendOptions configure a single send.
type SendOptions struct {
	ContentType ContentType
	// Delay postpones delivery.
	Delay time.Duration
}

// OutgoingMessage is one entry of SendBatch.
type OutgoingMessage struct {
	Body    []byte
	Options SendOptions
}

// Producer is the queue binding the Queue wrapper delegates to.
type Producer interface {
	Send(ctx context.Context, body []byte, opts SendOptions) error
	SendBatch(ctx context.Context, msgs []OutgoingMessage) error
}

// Handler processes one delivered batch.
//
// Messages left unsettled are acknowledged when the handler returns nil and
// retried when it returns an error.
type Handler func(ctx context.Context, batch *Batch) error

// Consumer pulls batches from a queue until ctx is cancelled.
type Consumer interface {
	Consume(ctx context.Context, handler Handler) error
}

type outcome uint8

const (
	outcomePending outcome = iota
	outcomeAcked
	outcomeRetried
)

// Message is a delivered queue message.
type Message struct {
	Timestamp   time.Time
	ID          string
	ContentType ContentType
	Body        []byte
	Attempts    int

	mu         sync.Mutex
	state      outcome
	retryDelay time.Duration
}

// NewMessage builds a pending message. Backends and tests use it.
func NewMessage(id string, body []byte, ts time.Time, attempts int) *Message {
	return &Message{
		ID:          id,
		Body:        body,
		Timestamp:   ts,
		Attempts:    attempts,
		ContentType: ContentTypeJSON,
	}
}

// Decode unmarshals a JSON body into v.
func (m *Message) Decode(v any) error {
	return json.Unmarshal(m.Body, v)
}

// Ack marks the message as processed. The first of Ack or Retry wins.
func (m *Message) Ack() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == outcomePending {
		m.state = outcomeAcked
	}
}

// RetryOption configures a Retry call.
type RetryOption func(*Message)

// WithRetryDelay postpones redelivery.
func WithRetryDelay(d time.Duration) RetryOption {
	return func(m *Message) {
		m.retryDelay = d
	}
}

// Retry asks for redelivery. The first of Ack or Retry wins.
func (m *Message) Retry(opts ...RetryOption) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != outcomePending {
		return
	}
	m.state = outcomeRetried
	for _, opt := range opts {
		opt(m)
	}
}

// Acked reports whether Ack was called.
func (m *Message) Acked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == outcomeAcked
}

// Retried reports whether Retry was called.
func (m *Message) Retried() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == outcomeRetried
}

// RetryDelay returns the delay requested by Retry.
func (m *Message) RetryDelay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retryDelay
}

// Batch is a group of messages delivered together from one queue.
type Batch struct {
	Queue    string
	Messages []*Message
}

// AckAll acknowledges every unsettled message.
func (b *Batch) AckAll() {
	for _, m := range b.Messages {
		m.Ack()
	}
}

// RetryAll retries every unsettled message.
func (b *Batch) RetryAll(opts ...RetryOption) {
	for _, m := range b.Messages {
		m.Retry(opts...)
	}
}

// Settle resolves unsettled messages after a handler ran and splits the
// batch by outcome. Backends call it to decide what to delete and what to redeliver.
func (b *Batch) Settle(handlerErr error) (acked, retried []*Message) {
	if handlerErr != nil {
		b.RetryAll()
	} else {
		b.AckAll()
	}
	for _, m := range b.Messages {
		if m.Acked() {
			acked = append(acked, m)
		} else {
			retried = append(retried, m)
		}
	}
	return acked, retried
}
