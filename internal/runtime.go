package internal

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/edgekit/pkg/queue"
)

type runtimeConfig struct {
	app             *App
	handler         http.Handler
	baseCtx         context.Context
	logger          *slog.Logger
	address         string
	startupHooks    []func(context.Context) error
	shutdownHooks   []func(context.Context) error
	consumers       []queue.Consumer
	shutdownTimeout time.Duration
	cron            bool
}

func runServer(cfg runtimeConfig) error {
	log := cfg.logger

	baseCtx := cfg.baseCtx
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(baseCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for _, hook := range cfg.startupHooks {
		if err := hook(ctx); err != nil {
			return err
		}
	}

	server := &http.Server{
		Addr:              cfg.address,
		Handler:           cfg.handler,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		MaxHeaderBytes:    defaultMaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var scheduler *cron.Cron
	if cfg.cron {
		scheduler = startScheduler(ctx, cfg.app, log)
	}

	consumeCtx, stopConsumers := context.WithCancel(ctx)
	defer stopConsumers()
	var consumers errgroup.Group
	for _, c := range cfg.consumers {
		consumers.Go(func() error {
			if err := c.Consume(consumeCtx, cfg.app.QueueBatch); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("queue consumer stopped", slog.String("error", err.Error()))
				return err
			}
			return nil
		})
	}

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
	defer shutdownCancel()

	errs := []error{serveErr}

	// 1. Stop accepting new events.
	if err := server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
		}
	}
	stopConsumers()
	if err := consumers.Wait(); err != nil {
		errs = append(errs, err)
	}

	// 2. Let deferred work of finished events complete.
	if err := cfg.app.Drain(shutdownCtx); err != nil {
		errs = append(errs, err)
		log.Warn("in-flight events abandoned", slog.String("error", err.Error()))
	}

	// 3. Release bindings.
	for _, hook := range cfg.shutdownHooks {
		if err := hook(shutdownCtx); err != nil {
			errs = append(errs, err)
			log.Error("shutdown hook failed", slog.String("error", err.Error()))
		}
	}

	if err := errors.Join(errs...); err != nil {
		log.Error("shutdown completed with errors")
		return err
	}
	log.Info("shutdown completed")
	return nil
}

// startScheduler fires Scheduled at the top of every minute.
func startScheduler(ctx context.Context, app *App, log *slog.Logger) *cron.Cron {
	c := cron.New(cron.WithLocation(time.UTC))
	_, _ = c.AddFunc("* * * * *", func() {
		at := time.Now().UTC().Truncate(time.Minute)
		if err := app.Scheduled(context.WithoutCancel(ctx), at); err != nil {
			log.Warn("scheduled event incomplete", slog.String("error", err.Error()))
		}
	})
	c.Start()
	return c
}
