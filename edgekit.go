package edgekit

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/edgekit/internal"
	"github.com/dmitrymomot/edgekit/pkg/health"
	"github.com/dmitrymomot/edgekit/pkg/logger"
)

// Type aliases - public API
type (
	// App turns HTTP requests, scheduled ticks and queue batches into
	// scoped calls.
	App = internal.App

	// Option configures the application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// Handler declares routes on a chi router.
	Handler = internal.Handler

	// HandlerFunc adapts a route declaring function to Handler.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps an http.Handler inside the event scope.
	Middleware = internal.Middleware

	// Bindings is the capability set configured at startup.
	Bindings = internal.Bindings

	// Binding names a configured resource.
	Binding = internal.Binding

	// Carrier holds the resources of one event.
	Carrier = internal.Carrier

	// ContextError is returned by accessors used outside an event scope.
	ContextError = internal.ContextError

	// ConfigError is returned by accessors whose binding is not configured.
	ConfigError = internal.ConfigError

	// ContextExtractor extracts a slog attribute from context.
	ContextExtractor = logger.ContextExtractor
)

// Binding names.
const (
	BindingKV    = internal.BindingKV
	BindingFS    = internal.BindingFS
	BindingDB    = internal.BindingDB
	BindingQueue = internal.BindingQueue
	BindingAI    = internal.BindingAI
)

// Errors matched with errors.Is.
var (
	ErrContextMissing = internal.ErrContextMissing
	ErrBindingMissing = internal.ErrBindingMissing
	ErrNoQueueHandler = internal.ErrNoQueueHandler
)

// New creates an application with the given options.
//
// Example:
//
//	app := edgekit.New(
//	    edgekit.WithKV(kv.NewRedis(client)),
//	    edgekit.WithFS(bucket),
//	    edgekit.WithHandlers(handlers.NewPages()),
//	)
//
//	err := app.Run(edgekit.Address(":8080"))
func New(opts ...Option) *App {
	return internal.New(opts...)
}

// Middleware establishes the event scope for routers the App does not own:
//
//	r := chi.NewRouter()
//	r.Use(edgekit.Middleware(app))
func Middleware(app *App) func(http.Handler) http.Handler {
	return app.Middleware
}

// WithCarrier establishes a scope manually, mostly useful in tests.
func WithCarrier(ctx context.Context, c *Carrier) context.Context {
	return internal.WithCarrier(ctx, c)
}

// CarrierFrom returns the carrier of the enclosing scope.
func CarrierFrom(ctx context.Context) (*Carrier, bool) {
	return internal.CarrierFrom(ctx)
}

// EventExtractor adds the event kind ("fetch", "scheduled", "queue") to logs.
//
//	log := logger.New(logger.WithExtractors(edgekit.EventExtractor()))
func EventExtractor() ContextExtractor {
	return internal.EventExtractor()
}

// Run options

func Address(addr string) RunOption {
	return internal.Address(addr)
}

func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

func StartupHook(fn func(context.Context) error) RunOption {
	return internal.StartupHook(fn)
}

// ShutdownHook registers a cleanup function run after events drained.
//
//	edgekit.ShutdownHook(db.Shutdown(sqlDB))
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}

func WithoutScheduler() RunOption {
	return internal.WithoutScheduler()
}

func WithoutConsumers() RunOption {
	return internal.WithoutConsumers()
}

// Health options

func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}
