package queue

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type envelope struct {
	sentAt      time.Time
	id          string
	contentType ContentType
	body        []byte
	attempts    int
}

// MemoryOption configures a Memory queue.
type MemoryOption func(*Memory)

// WithBatchSize caps the messages per delivered batch. Default: 10.
func WithBatchSize(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.batchSize = n
		}
	}
}

// WithMaxBatchWait bounds how long a partial batch waits for more messages. Default: 1s.
func WithMaxBatchWait(d time.Duration) MemoryOption {
	return func(m *Memory) {
		if d > 0 {
			m.maxWait = d
		}
	}
}

// WithMaxRetries drops a message after n failed deliveries. Default: 3.
func WithMaxRetries(n int) MemoryOption {
	return func(m *Memory) {
		m.maxRetries = n
	}
}

// WithBuffer sets the channel capacity. Default: 1024.
func WithBuffer(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.buffer = n
		}
	}
}

// WithMemoryLogger sets the logger used for dropped messages.
func WithMemoryLogger(l *slog.Logger) MemoryOption {
	return func(m *Memory) {
		if l != nil {
			m.logger = l
		}
	}
}

// Memory is an in-process queue backed by a channel. It implements Producer
// and Consumer for local development and tests.
type Memory struct {
	ch         chan envelope
	done       chan struct{}
	logger     *slog.Logger
	name       string
	batchSize  int
	maxWait    time.Duration
	maxRetries int
	buffer     int
	closeOnce  sync.Once
	mu         sync.Mutex
	running    bool
}

// NewMemory creates an in-process queue named name.
func NewMemory(name string, opts ...MemoryOption) *Memory {
	m := &Memory{
		name:       name,
		done:       make(chan struct{}),
		logger:     slog.New(slog.DiscardHandler),
		batchSize:  10,
		maxWait:    time.Second,
		maxRetries: 3,
		buffer:     1024,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.ch = make(chan envelope, m.buffer)
	return m
}

// Name returns the queue name reported in batches.
func (m *Memory) Name() string {
	return m.name
}

// Len returns the number of messages ready for delivery.
func (m *Memory) Len() int {
	return len(m.ch)
}

// Send implements Producer.
func (m *Memory) Send(ctx context.Context, body []byte, opts SendOptions) error {
	if len(body) == 0 {
		return ErrEmptyBody
	}
	ct := opts.ContentType
	if ct == "" {
		ct = ContentTypeJSON
	}
	env := envelope{
		id:          uuid.NewString(),
		body:        slices.Clone(body),
		contentType: ct,
		sentAt:      time.Now().UTC(),
	}
	return m.push(ctx, env, opts.Delay)
}

// SendBatch implements Producer.
func (m *Memory) SendBatch(ctx context.Context, msgs []OutgoingMessage) error {
	for _, msg := range msgs {
		if err := m.Send(ctx, msg.Body, msg.Options); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) push(ctx context.Context, env envelope, delay time.Duration) error {
	select {
	case <-m.done:
		return ErrClosed
	default:
	}

	if delay > 0 {
		time.AfterFunc(delay, func() {
			select {
			case m.ch <- env:
			case <-m.done:
			}
		})
		return nil
	}

	select {
	case m.ch <- env:
		return nil
	case <-m.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume implements Consumer. It delivers batches of up to the batch size,
// flushing partial batches after the max wait, until ctx is cancelled or the
// queue is closed.
func (m *Memory) Consume(ctx context.Context, handler Handler) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	m.running = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	for {
		batch, ok := m.collect(ctx)
		if len(batch) > 0 {
			m.deliver(ctx, batch, handler)
		}
		if !ok {
			if ctx.Err() != nil {
				return nil
			}
			return ErrClosed
		}
	}
}

// collect blocks for the first message, then gathers more until the batch is
// full or the max wait elapses. ok is false once the consumer must stop.
func (m *Memory) collect(ctx context.Context) (batch []envelope, ok bool) {
	select {
	case env := <-m.ch:
		batch = append(batch, env)
	case <-ctx.Done():
		return nil, false
	case <-m.done:
		return nil, false
	}

	timer := time.NewTimer(m.maxWait)
	defer timer.Stop()

	for len(batch) < m.batchSize {
		select {
		case env := <-m.ch:
			batch = append(batch, env)
		case <-timer.C:
			return batch, true
		case <-ctx.Done():
			return batch, false
		case <-m.done:
			return batch, false
		}
	}
	return batch, true
}

func (m *Memory) deliver(ctx context.Context, envs []envelope, handler Handler) {
	b := &Batch{Queue: m.name, Messages: make([]*Message, 0, len(envs))}
	for _, env := range envs {
		msg := NewMessage(env.id, env.body, env.sentAt, env.attempts+1)
		msg.ContentType = env.contentType
		b.Messages = append(b.Messages, msg)
	}

	err := handler(context.WithoutCancel(ctx), b)
	if err != nil {
		m.logger.ErrorContext(ctx, "queue batch failed",
			slog.String("queue", m.name),
			slog.Int("messages", len(envs)),
			slog.Any("error", err),
		)
	}

	_, retried := b.Settle(err)
	for i, msg := range b.Messages {
		if !slices.Contains(retried, msg) {
			continue
		}
		env := envs[i]
		env.attempts++
		if m.maxRetries > 0 && env.attempts >= m.maxRetries {
			m.logger.WarnContext(ctx, "queue message dropped after max retries",
				slog.String("queue", m.name),
				slog.String("message_id", env.id),
				slog.Int("attempts", env.attempts),
			)
			continue
		}
		// always through a timer: the consumer must not block on its own full channel
		if err := m.push(context.WithoutCancel(ctx), env, max(msg.RetryDelay(), time.Millisecond)); err != nil {
			m.logger.ErrorContext(ctx, "queue message requeue failed",
				slog.String("queue", m.name),
				slog.String("message_id", env.id),
				slog.Any("error", err),
			)
		}
	}
}

// Close stops consumers and rejects further sends. Pending delayed messages are discarded.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
	})
	return nil
}

var (
	_ Producer = (*Memory)(nil)
	_ Consumer = (*Memory)(nil)
)
