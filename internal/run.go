package internal

// Run serves HTTP and, when configured, ticks scheduled tasks once a minute
// and consumes the bound queues. It blocks until SIGINT, SIGTERM or
// cancellation of the WithContext context, then shuts down gracefully.
//
// Example:
//
//	app := edgekit.New(
//	    edgekit.WithKV(store),
//	    edgekit.WithTask(cleanup, task.Every().Hourly()),
//	)
//	err := app.Run(edgekit.Address(":8080"), edgekit.Logger(log))
func (a *App) Run(opts ...RunOption) error {
	cfg := buildRunConfig(opts...)
	if cfg.logger == nil {
		cfg.logger = a.logger
	}

	rt := runtimeConfig{
		app:             a,
		handler:         a.Handler(),
		address:         cfg.address,
		logger:          cfg.logger,
		shutdownTimeout: cfg.shutdownTimeout,
		startupHooks:    cfg.startupHooks,
		shutdownHooks:   cfg.shutdownHooks,
		baseCtx:         cfg.baseCtx,
	}
	if !cfg.disableCron && a.tasks.Len() > 0 {
		rt.cron = true
	}
	if !cfg.disableConsumer {
		rt.consumers = a.consumers
	}

	return runServer(rt)
}
