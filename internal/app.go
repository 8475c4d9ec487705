package internal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/edgekit/pkg/db"
	"github.com/dmitrymomot/edgekit/pkg/health"
	"github.com/dmitrymomot/edgekit/pkg/job"
	"github.com/dmitrymomot/edgekit/pkg/logger"
	"github.com/dmitrymomot/edgekit/pkg/queue"
	"github.com/dmitrymomot/edgekit/pkg/session"
	"github.com/dmitrymomot/edgekit/pkg/task"
)

// Default server timeouts.
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// App turns inbound events into scoped calls. Each HTTP request, scheduled
// tick and queue batch gets its own Carrier built from the shared Bindings.
// App is immutable after New.
type App struct {
	bindings     *Bindings
	settings     carrierSettings
	logger       *slog.Logger
	router       chi.Router
	middlewares  []Middleware
	handlers     []Handler
	healthConfig *healthConfig
	sessionOpts  []session.Option
	withSessions bool

	tasks        *task.Manager
	taskOpts     []task.Option
	jobs         *job.Manager
	jobOpts      []job.ManagerOption
	queueHandler queue.Handler
	consumers    []queue.Consumer

	events sync.WaitGroup
}

// New creates an application with the given options. Options that cannot
// be applied panic, as misconfiguration is a startup bug.
//
// Example:
//
//	app := edgekit.New(
//	    edgekit.WithKV(kv.NewMemory()),
//	    edgekit.WithQueue(q),
//	    edgekit.WithJobs(sendWelcomeEmail),
//	    edgekit.WithHandlers(handlers.NewPages()),
//	)
func New(opts ...Option) *App {
	a := &App{
		bindings: &Bindings{},
		settings: carrierSettings{cacheGroup: new(singleflight.Group)},
		logger:   logger.NewNope(),
		router:   chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.bindings.DB != nil && a.bindings.ORM == nil {
		orm, err := db.OpenORM(a.bindings.DB)
		if err != nil {
			a.logger.Warn("orm unavailable for DB binding", slog.String("error", err.Error()))
		} else {
			a.bindings.ORM = orm
		}
	}

	a.tasks = task.NewManager(append([]task.Option{task.WithLogger(a.logger)}, a.taskOpts...)...)
	if len(a.jobOpts) > 0 {
		a.jobs = job.NewManager(append([]job.ManagerOption{job.WithLogger(a.logger)}, a.jobOpts...)...)
	}

	a.setupRoutes()
	return a
}

// Bindings returns the capability set shared by all events.
func (a *App) Bindings() *Bindings {
	return a.bindings
}

// Tasks returns the scheduled task manager.
func (a *App) Tasks() *task.Manager {
	return a.tasks
}

// Jobs returns the job manager, or nil when no jobs were registered.
func (a *App) Jobs() *job.Manager {
	return a.jobs
}

// Handler returns the HTTP handler with the scope middleware installed.
func (a *App) Handler() http.Handler {
	return a.router
}

func (a *App) setupRoutes() {
	a.router.Use(a.Middleware)

	if a.withSessions {
		mw, err := session.Middleware(a.sessionStorage, append([]session.Option{session.WithLogger(a.logger)}, a.sessionOpts...)...)
		if err != nil {
			panic("session middleware: " + err.Error())
		}
		a.router.Use(mw)
	}

	for _, mw := range a.middlewares {
		a.router.Use(mw)
	}

	if a.healthConfig != nil {
		a.router.Get(a.healthConfig.livenessPath, health.LivenessHandler())
		a.router.Get(a.healthConfig.readinessPath, health.ReadinessHandler(a.healthChecks(), health.WithLogger(a.logger)))
	}

	for _, h := range a.handlers {
		h.Routes(a.router)
	}
}

func (a *App) sessionStorage(ctx context.Context) (session.Storage, error) {
	c, err := Scope(ctx, "sessionStorage")
	if err != nil {
		return nil, err
	}
	return c.SessionStorage()
}

// Middleware establishes the fetch scope for next. Deferred work is awaited
// after the handler returns, without holding the response.
// Use it to mount the scope on a router that App does not own.
func (a *App) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, c := newCarrier(r.Context(), EventFetch, a.bindings, r, a.logger, &a.settings)
		rw := NewResponseWriter(w)
		started := time.Now()

		a.events.Add(1)
		defer func() {
			a.logger.DebugContext(ctx, "request handled",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rw.Status()),
				slog.Int64("size", rw.Size()),
				slog.Duration("duration", time.Since(started)),
			)
			go a.await(ctx, c)
		}()

		next.ServeHTTP(rw, r.WithContext(ctx))
	})
}

func (a *App) await(ctx context.Context, c *Carrier) {
	defer a.events.Done()
	if err := c.Wait(); err != nil {
		a.logger.WarnContext(ctx, "deferred work abandoned",
			slog.Int("pending", c.Pending()),
			slog.String("error", err.Error()),
		)
	}
}

// Scheduled runs the tasks due at at inside a scheduled scope and waits
// for them and any work they deferred.
func (a *App) Scheduled(ctx context.Context, at time.Time) error {
	a.events.Add(1)
	defer a.events.Done()

	ctx, c := newCarrier(ctx, EventScheduled, a.bindings, nil, a.logger, &a.settings)
	n := a.tasks.Process(ctx, at)
	a.logger.DebugContext(ctx, "scheduled tick", slog.Time("at", at), slog.Int("tasks", n))
	return c.Wait()
}

// QueueBatch handles one delivered batch inside a queue scope. The custom
// handler set with WithQueueHandler takes precedence over registered jobs.
// QueueBatch returns only after deferred work settled, so backends settle
// messages with the final outcome.
func (a *App) QueueBatch(ctx context.Context, b *queue.Batch) error {
	a.events.Add(1)
	defer a.events.Done()

	ctx, c := newCarrier(ctx, EventQueue, a.bindings, nil, a.logger, &a.settings)

	var err error
	switch {
	case a.queueHandler != nil:
		err = a.queueHandler(ctx, b)
	case a.jobs != nil:
		err = a.jobs.ProcessBatch(ctx, b)
	default:
		err = ErrNoQueueHandler
	}

	if werr := c.Wait(); werr != nil {
		err = errors.Join(err, werr)
	}
	return err
}

// LambdaSQSHandler adapts QueueBatch to an AWS Lambda SQS trigger:
//
//	lambda.Start(app.LambdaSQSHandler())
func (a *App) LambdaSQSHandler() func(context.Context, events.SQSEvent) (events.SQSEventResponse, error) {
	return queue.LambdaHandler(a.bindings.QueueName, a.QueueBatch, a.logger)
}

// Drain waits for in-flight events, including deferred work of finished
// requests, until ctx is done.
func (a *App) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.events.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
