package job

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/dmitrymomot/edgekit/pkg/deferred"
	"github.com/dmitrymomot/edgekit/pkg/logger"
	"github.com/dmitrymomot/edgekit/pkg/queue"
)

// Manager dispatches queue messages to registered jobs by the "job" field
// of the message body.
type Manager struct {
	jobs    map[string]Job
	logger  *slog.Logger
	onError ErrorHandler
	mu      sync.RWMutex
}

// NewManager creates a Manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		jobs:   make(map[string]Job),
		logger: logger.NewNope(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds jobs keyed by Name. A later job with the same name replaces
// the earlier one.
func (m *Manager) Register(jobs ...Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range jobs {
		if j != nil {
			m.jobs[j.Name()] = j
		}
	}
}

// Names returns registered job names in sorted order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.jobs))
}

func (m *Manager) lookup(name string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[name]
	return j, ok
}

// ProcessBatch schedules one Process call per message on the deferred hook
// found in ctx and returns without waiting. Without a hook the messages are
// processed inline. It matches queue.Handler, so it can be passed to
// Consume directly.
func (m *Manager) ProcessBatch(ctx context.Context, b *queue.Batch) error {
	d, ok := deferred.FromContext(ctx)
	if !ok {
		d = deferred.Inline{Logger: m.logger}
	}
	for _, msg := range b.Messages {
		d.Go(func(ctx context.Context) error {
			_ = m.Process(ctx, msg)
			return nil
		})
	}
	return nil
}

// Process runs the job named by msg and acknowledges msg on success.
// Any failure is passed to the error handler and returned; msg is left
// unsettled so the handler can retry it.
func (m *Manager) Process(ctx context.Context, msg *queue.Message) error {
	err := m.process(ctx, msg)
	if err == nil {
		msg.Ack()
		return nil
	}

	m.logger.ErrorContext(ctx, "job failed",
		slog.String("message_id", msg.ID),
		slog.Int("attempts", msg.Attempts),
		slog.Any("error", err),
	)
	if m.onError != nil {
		m.onError(ctx, err, msg)
	}
	return err
}

func (m *Manager) process(ctx context.Context, msg *queue.Message) error {
	if !gjson.ValidBytes(msg.Body) {
		return ErrInvalidPayload
	}
	name := gjson.GetBytes(msg.Body, "job")
	if name.Type != gjson.String || name.Str == "" {
		return ErrMissingJobName
	}

	j, ok := m.lookup(name.Str)
	if !ok {
		return fmt.Errorf("Job %s not registered: %w", name.Str, ErrJobNotRegistered)
	}

	data, err := j.Validate(msg.Body)
	if err != nil {
		return fmt.Errorf("job %s: %w", name.Str, err)
	}
	if err := j.Perform(ctx, data); err != nil {
		return fmt.Errorf("job %s: %w", name.Str, err)
	}
	return nil
}
