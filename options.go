package edgekit

import (
	"database/sql"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/dmitrymomot/edgekit/internal"
	"github.com/dmitrymomot/edgekit/pkg/ai"
	"github.com/dmitrymomot/edgekit/pkg/job"
	"github.com/dmitrymomot/edgekit/pkg/kv"
	"github.com/dmitrymomot/edgekit/pkg/queue"
	"github.com/dmitrymomot/edgekit/pkg/ratelimit"
	"github.com/dmitrymomot/edgekit/pkg/session"
	"github.com/dmitrymomot/edgekit/pkg/storage"
	"github.com/dmitrymomot/edgekit/pkg/task"
)

// Bindings

// WithKV binds the key-value store behind KV, Cache, RateLimit and
// SessionStorage.
func WithKV(store kv.Store) Option {
	return internal.WithKV(store)
}

// WithFS binds the object storage bucket behind FS.
func WithFS(bucket storage.Bucket) Option {
	return internal.WithFS(bucket)
}

// WithDB binds the SQL database behind DB and ORM.
func WithDB(db *sql.DB) Option {
	return internal.WithDB(db)
}

// WithORM sets the gorm handle returned by ORM.
func WithORM(orm *gorm.DB) Option {
	return internal.WithORM(orm)
}

// WithQueue binds the producer behind Queue. Queues that can consume are
// consumed by Run.
func WithQueue(p queue.Producer) Option {
	return internal.WithQueue(p)
}

// WithConsumer consumes a queue without binding it as the producer.
func WithConsumer(c queue.Consumer) Option {
	return internal.WithConsumer(c)
}

// WithAI binds the inference runner behind AI.
func WithAI(r ai.Runner) Option {
	return internal.WithAI(r)
}

// WithVars sets the variables returned by Env, on top of the process
// environment.
func WithVars(vars map[string]string) Option {
	return internal.WithVars(vars)
}

// Service settings

func WithRateLimit(counter ratelimit.Counter, opts ...ratelimit.Option) Option {
	return internal.WithRateLimit(counter, opts...)
}

func WithCacheTTL(d time.Duration) Option {
	return internal.WithCacheTTL(d)
}

func WithSessionStorage(s session.Storage) Option {
	return internal.WithSessionStorage(s)
}

func WithSessionTTL(d time.Duration) Option {
	return internal.WithSessionTTL(d)
}

// WithSessions installs the cookie session middleware. Handlers read the
// session with Session.
func WithSessions(opts ...session.Option) Option {
	return internal.WithSessions(opts...)
}

func WithDeferredTimeout(d time.Duration) Option {
	return internal.WithDeferredTimeout(d)
}

func WithDeferredLimit(n int) Option {
	return internal.WithDeferredLimit(n)
}

// Events

// WithTask schedules t; a nil schedule runs every minute.
//
//	edgekit.WithTask(task.New("cleanup", cleanup), task.Every().DailyAt("03:30"))
func WithTask(t task.Task, s *task.Schedule) Option {
	return internal.WithTask(t, s)
}

func WithTaskLocation(loc *time.Location) Option {
	return internal.WithTaskLocation(loc)
}

// WithJobs registers jobs run from queue batches.
func WithJobs(jobs ...job.Job) Option {
	return internal.WithJobs(jobs...)
}

func WithJobErrorHandler(h job.ErrorHandler) Option {
	return internal.WithJobErrorHandler(h)
}

func WithQueueHandler(h queue.Handler) Option {
	return internal.WithQueueHandler(h)
}

// HTTP

func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

func WithHandlers(h ...Handler) Option {
	return internal.WithHandlers(h...)
}

// WithHealthChecks mounts /health/live and /health/ready.
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

func WithLogger(l *slog.Logger) Option {
	return internal.WithLogger(l)
}
