// Package edgekit exposes platform primitives through request-scoped
// accessors: a key-value store, object storage, a SQL database, queues,
// ML inference, geolocation, rate limiting and sessions.
//
// Every inbound event (an HTTP request, a scheduled tick or a queue batch)
// runs inside a scope. Code anywhere down the call chain reads what it
// needs from the context:
//
//	func (h *Pages) counter(w http.ResponseWriter, r *http.Request) {
//	    store, err := edgekit.KV(r.Context())
//	    if err != nil {
//	        http.Error(w, err.Error(), http.StatusInternalServerError)
//	        return
//	    }
//	    ...
//	}
//
// Accessors fail fast. Outside a scope they return a [ContextError]
// ("You must run "kv()" from inside an Edge-first context."), and inside a
// scope without the binding a [ConfigError] naming it ("Configure KV in
// your wrangler.toml file.").
//
// # Bindings
//
// Bindings are configured once, at startup, with options:
//
//	app := edgekit.New(
//	    edgekit.WithKV(kv.NewRedis(client)),
//	    edgekit.WithFS(bucket),
//	    edgekit.WithDB(sqlDB),
//	    edgekit.WithQueue(q),
//	    edgekit.WithAI(runner),
//	    edgekit.WithVars(vars),
//	)
//
// In-memory implementations (kv.NewMemory, storage.NewMemoryBucket,
// queue.NewMemory) and SQLite make a complete local setup.
//
// # Deferred work
//
// [WaitUntil], cache writes and queue sends run after the current call
// returns and are awaited by the event with a bounded timeout:
//
//	_ = edgekit.WaitUntil(ctx, func(ctx context.Context) error {
//	    return notify(ctx, user)
//	})
//
// # Events
//
// HTTP requests go through [App.Handler] or [Middleware]. Scheduled tasks
// registered with [WithTask] run from [App.Scheduled], which Run calls at
// the top of every minute. Queue batches go to jobs registered with
// [WithJobs] through [App.QueueBatch]; Run consumes bound queues and
// [App.LambdaSQSHandler] serves AWS Lambda SQS triggers.
package edgekit
