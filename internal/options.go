package internal

import (
	"database/sql"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"gorm.io/gorm"

	"github.com/dmitrymomot/edgekit/pkg/ai"
	"github.com/dmitrymomot/edgekit/pkg/cache"
	"github.com/dmitrymomot/edgekit/pkg/deferred"
	"github.com/dmitrymomot/edgekit/pkg/health"
	"github.com/dmitrymomot/edgekit/pkg/job"
	"github.com/dmitrymomot/edgekit/pkg/kv"
	"github.com/dmitrymomot/edgekit/pkg/queue"
	"github.com/dmitrymomot/edgekit/pkg/ratelimit"
	"github.com/dmitrymomot/edgekit/pkg/session"
	"github.com/dmitrymomot/edgekit/pkg/storage"
	"github.com/dmitrymomot/edgekit/pkg/task"
)

type Option func(*App)

// WithKV binds the key-value store used by KV, Cache, RateLimit and
// SessionStorage.
func WithKV(store kv.Store) Option {
	return func(a *App) {
		a.bindings.KV = store
	}
}

// WithFS binds the object storage bucket.
func WithFS(bucket storage.Bucket) Option {
	return func(a *App) {
		a.bindings.FS = bucket
	}
}

// WithDB binds a SQL database. A gorm handle is opened over SQLite
// databases automatically; use WithORM for other dialects.
func WithDB(db *sql.DB) Option {
	return func(a *App) {
		a.bindings.DB = db
	}
}

func WithORM(orm *gorm.DB) Option {
	return func(a *App) {
		a.bindings.ORM = orm
	}
}

// WithQueue binds the queue producer. When p can also consume
// (queue.Memory, queue.SQS, queue.River), Run starts a consumer for it.
func WithQueue(p queue.Producer) Option {
	return func(a *App) {
		a.bindings.Queue = p
		if named, ok := p.(interface{ Name() string }); ok {
			a.bindings.QueueName = named.Name()
		}
		if c, ok := p.(queue.Consumer); ok {
			a.consumers = append(a.consumers, c)
		}
	}
}

// WithConsumer adds a queue to consume without binding it as the producer.
func WithConsumer(c queue.Consumer) Option {
	return func(a *App) {
		if c != nil {
			a.consumers = append(a.consumers, c)
		}
	}
}

func WithAI(r ai.Runner) Option {
	return func(a *App) {
		a.bindings.AI = r
	}
}

// WithVars sets the variables returned by Env. Later calls merge.
func WithVars(vars map[string]string) Option {
	return func(a *App) {
		if a.bindings.Vars == nil {
			a.bindings.Vars = make(map[string]string, len(vars))
		}
		maps.Copy(a.bindings.Vars, vars)
	}
}

// WithRateLimit configures the limiter returned by RateLimit. Without a
// counter the KV binding is used.
func WithRateLimit(counter ratelimit.Counter, opts ...ratelimit.Option) Option {
	return func(a *App) {
		a.bindings.Counter = counter
		a.settings.rateLimitOpts = append(a.settings.rateLimitOpts, opts...)
	}
}

// WithCacheTTL changes the default TTL of Cache.
func WithCacheTTL(d time.Duration) Option {
	return func(a *App) {
		a.settings.cacheOpts = append(a.settings.cacheOpts, cache.WithDefaultTTL(d))
	}
}

// WithSessionStorage replaces the KV-backed session storage.
func WithSessionStorage(s session.Storage) Option {
	return func(a *App) {
		a.bindings.Sessions = s
	}
}

// WithSessionTTL sets the TTL of KV-backed sessions.
func WithSessionTTL(d time.Duration) Option {
	return func(a *App) {
		a.settings.sessionOpts = append(a.settings.sessionOpts, session.WithTTL(d))
	}
}

// WithSessions installs the session middleware on the app router.
func WithSessions(opts ...session.Option) Option {
	return func(a *App) {
		a.withSessions = true
		a.sessionOpts = append(a.sessionOpts, opts...)
	}
}

// WithDeferredTimeout bounds how long an event waits for deferred work.
// Default: 30s.
func WithDeferredTimeout(d time.Duration) Option {
	return func(a *App) {
		a.settings.deferredOpts = append(a.settings.deferredOpts, deferred.WithTimeout(d))
	}
}

// WithDeferredLimit caps concurrent deferred functions per event.
func WithDeferredLimit(n int) Option {
	return func(a *App) {
		a.settings.deferredOpts = append(a.settings.deferredOpts, deferred.WithLimit(n))
	}
}

// WithTask schedules t. A nil schedule runs every minute.
// Panics when the schedule failed to build.
//
//	edgekit.WithTask(cleanup, task.Every().DailyAt("03:30"))
func WithTask(t task.Task, s *task.Schedule) Option {
	return func(a *App) {
		if s != nil && s.Err() != nil {
			panic(fmt.Sprintf("task %s: %v", t.Name(), s.Err()))
		}
		a.taskOpts = append(a.taskOpts, scheduleOption(t, s))
	}
}

func scheduleOption(t task.Task, s *task.Schedule) task.Option {
	return func(m *task.Manager) {
		_ = m.Schedule(t, s)
	}
}

// WithTaskLocation sets the time zone schedules are evaluated in.
func WithTaskLocation(loc *time.Location) Option {
	return func(a *App) {
		a.taskOpts = append(a.taskOpts, task.WithLocation(loc))
	}
}

// WithJobs registers jobs processed from queue batches.
func WithJobs(jobs ...job.Job) Option {
	return func(a *App) {
		a.jobOpts = append(a.jobOpts, job.WithJobs(jobs...))
	}
}

// WithJobErrorHandler decides what happens to messages whose job failed.
func WithJobErrorHandler(h job.ErrorHandler) Option {
	return func(a *App) {
		a.jobOpts = append(a.jobOpts, job.WithErrorHandler(h))
	}
}

// WithQueueHandler handles queue batches directly instead of through jobs.
func WithQueueHandler(h queue.Handler) Option {
	return func(a *App) {
		a.queueHandler = h
	}
}

func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

func WithHandlers(h ...Handler) Option {
	return func(a *App) {
		a.handlers = append(a.handlers, h...)
	}
}

// WithHealthChecks mounts liveness and readiness endpoints. The DB binding
// is checked automatically.
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		cfg := &healthConfig{
			livenessPath:  defaultLivenessPath,
			readinessPath: defaultReadinessPath,
			checks:        make(health.Checks),
		}
		for _, opt := range opts {
			opt(cfg)
		}
		a.healthConfig = cfg
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}
