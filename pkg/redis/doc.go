// Package redis connects the go-redis client used by the Redis-backed
// KV store, cache, rate limiter and session storage.
//
// Connection settings come from [Config], which is populated from the
// environment by the config package:
//
//	cfg, err := config.Load[redis.Config]()
//	client, err := redis.Connect(ctx, cfg)
//	defer client.Close()
//
// [Connect] pings the server and retries with linear backoff so a service
// can start before Redis is ready. [Healthcheck] plugs into the health
// package and [Shutdown] into application shutdown hooks.
package redis
