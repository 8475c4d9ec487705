// Package internal implements the event scope behind the edgekit API.
//
// Import "github.com/dmitrymomot/edgekit" instead; it re-exports App, the
// options and typed accessors.
//
// # Events and carriers
//
// Every inbound event gets a fresh [Carrier]: HTTP requests through
// [App.Middleware], scheduled ticks through [App.Scheduled] and queue
// batches through [App.QueueBatch]. The carrier holds thin wrappers over
// the [Bindings] configured at startup, the request (HTTP only), the
// environment variables and a deferred-work group. [WithCarrier] stores it
// in the context passed down the call chain and [CarrierFrom] reads it back.
//
// Accessors fail fast. Outside a scope they return [*ContextError]; inside
// a scope without the binding they depend on they return [*ConfigError]
// naming it:
//
//	You must run "kv()" from inside an Edge-first context.
//	Configure KV in your wrangler.toml file.
//
// # Deferred work
//
// Work scheduled through the carrier runs on its own goroutine with a
// context detached from request cancellation. HTTP events await it after
// the handler returns, so the response is not held; scheduled and queue
// events await it before returning, so queue backends settle messages with
// the final outcome. The wait is bounded by WithDeferredTimeout.
//
// # Runtime
//
// [App.Run] serves HTTP with chi, fires Scheduled at the top of every
// minute with robfig/cron when tasks are registered and consumes bound
// queues. Shutdown stops the server, the scheduler and the consumers,
// drains in-flight events and then runs shutdown hooks.
package internal
