package deferred

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/edgekit/pkg/logger"
)

// DefaultTimeout bounds how long Wait blocks for outstanding work.
const DefaultTimeout = 30 * time.Second

// Func is a unit of deferred work.
type Func func(ctx context.Context) error

// Deferrer accepts work to run after the current event has been answered.
type Deferrer interface {
	Go(fn Func)
}

// Option configures a Group.
type Option func(*Group)

// WithLogger sets the logger used to report failed deferred work.
func WithLogger(l *slog.Logger) Option {
	return func(g *Group) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithTimeout overrides the Wait ceiling. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(g *Group) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithLimit caps the number of deferred functions running at once.
// Go blocks while the cap is reached.
func WithLimit(n int) Option {
	return func(g *Group) {
		if n > 0 {
			g.eg.SetLimit(n)
		}
	}
}

// Group tracks deferred work for a single event.
type Group struct {
	ctx     context.Context
	logger  *slog.Logger
	eg      errgroup.Group
	timeout time.Duration
	pending atomic.Int64
	failed  atomic.Int64
}

// New creates a Group. Work started through it receives ctx values but not its cancellation.
func New(ctx context.Context, opts ...Option) *Group {
	g := &Group{
		ctx:     context.WithoutCancel(ctx),
		logger:  logger.NewNope(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Go schedules fn. It returns immediately unless a concurrency limit is set and reached.
func (g *Group) Go(fn Func) {
	if fn == nil {
		return
	}
	g.pending.Add(1)
	g.eg.Go(func() error {
		defer g.pending.Add(-1)
		if err := g.run(fn); err != nil {
			g.failed.Add(1)
			g.logger.ErrorContext(g.ctx, "deferred task failed", slog.String("error", err.Error()))
		}
		// errors stay inside the group so one failure does not mask the others
		return nil
	})
}

func (g *Group) run(fn Func) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn(g.ctx)
}

// Wait blocks until all scheduled work finished or the ceiling elapsed.
// Work still running after the ceiling is abandoned, not cancelled.
func (g *Group) Wait() error {
	done := make(chan struct{})
	go func() {
		_ = g.eg.Wait()
		close(done)
	}()

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		g.logger.WarnContext(g.ctx, "deferred work still running after ceiling",
			slog.Int64("pending", g.pending.Load()),
			slog.Duration("timeout", g.timeout),
		)
		return ErrTimeout
	}
}

// Pending reports the number of functions that have not returned yet.
func (g *Group) Pending() int {
	return int(g.pending.Load())
}

// Failed reports how many functions returned an error or panicked.
func (g *Group) Failed() int {
	return int(g.failed.Load())
}

// Inline runs deferred work synchronously on the calling goroutine.
// It suits tests and one-shot tools where nothing awaits a Group.
type Inline struct {
	Logger *slog.Logger
}

// Go runs fn immediately and logs its error.
func (i Inline) Go(fn Func) {
	if fn == nil {
		return
	}
	ctx := context.Background()
	if err := fn(ctx); err != nil && i.Logger != nil {
		i.Logger.ErrorContext(ctx, "deferred task failed", slog.String("error", err.Error()))
	}
}

var (
	_ Deferrer = (*Group)(nil)
	_ Deferrer = Inline{}
)
