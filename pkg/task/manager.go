package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/edgekit/pkg/deferred"
	"github.com/dmitrymomot/edgekit/pkg/logger"
)

type entry struct {
	task     Task
	schedule *Schedule
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for started and failed tasks.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithLocation sets the time zone schedules are evaluated in. Default: UTC.
func WithLocation(loc *time.Location) Option {
	return func(m *Manager) {
		if loc != nil {
			m.loc = loc
		}
	}
}

// Manager holds scheduled tasks and starts the ones due at a given time.
type Manager struct {
	logger  *slog.Logger
	loc     *time.Location
	entries []entry
	mu      sync.RWMutex
}

// NewManager creates an empty Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		logger: logger.NewNope(),
		loc:    time.UTC,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Schedule registers t to run whenever s matches. A nil schedule runs every
// minute. Schedules with build errors are rejected.
//
// Example:
//
//	err := m.Schedule(cleanup, task.Every().DailyAt("03:30"))
func (m *Manager) Schedule(t Task, s *Schedule) error {
	if s == nil {
		s = Every()
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("task %s: %w", t.Name(), err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry{task: t, schedule: s})
	return nil
}

// Len returns the number of scheduled tasks.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Due returns the tasks whose schedules match at.
func (m *Manager) Due(at time.Time) []Task {
	at = at.In(m.loc)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var due []Task
	for _, e := range m.entries {
		if e.schedule.Matches(at) {
			due = append(due, e.task)
		}
	}
	return due
}

// Process starts every task due at on the deferred hook found in ctx and
// returns the number started. Tasks run concurrently in no particular
// order; failures are logged. Without a hook tasks run inline.
func (m *Manager) Process(ctx context.Context, at time.Time) int {
	d, ok := deferred.FromContext(ctx)
	if !ok {
		d = deferred.Inline{}
	}

	due := m.Due(at)
	for _, t := range due {
		d.Go(func(ctx context.Context) error {
			start := time.Now()
			if err := t.Perform(ctx); err != nil {
				m.logger.ErrorContext(ctx, "scheduled task failed",
					slog.String("task", t.Name()),
					slog.Any("error", err),
				)
				return nil
			}
			m.logger.DebugContext(ctx, "scheduled task done",
				slog.String("task", t.Name()),
				slog.Duration("duration", time.Since(start)),
			)
			return nil
		})
	}
	return len(due)
}
