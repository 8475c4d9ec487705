// Package middlewares provides net/http middleware for edgekit applications.
//
// # Request ID
//
// RequestID reuses X-Request-ID, X-Correlation-ID or CF-Ray, or generates a
// UUID. Pair it with RequestIDExtractor to log request_id everywhere:
//
//	log := logger.New(logger.WithExtractors(middlewares.RequestIDExtractor()))
//	app := edgekit.New(
//	    edgekit.WithLogger(log),
//	    edgekit.WithMiddleware(middlewares.RequestID()),
//	)
//
// # Recover
//
// Recover logs panics with their stack and answers 500 unless the handler
// already wrote a response. WithRecoverHandler customizes the response.
//
// # Timeout
//
// Timeout puts a deadline on the request context and answers 504 when the
// handler gave up without writing. Deferred work keeps running.
//
// # Rate limit
//
// RateLimit counts requests with the scope's limiter, per client IP by
// default, and answers 429 once the window is exhausted:
//
//	app := edgekit.New(
//	    edgekit.WithKV(store),
//	    edgekit.WithRateLimit(nil, ratelimit.WithLimit(60)),
//	    edgekit.WithMiddleware(middlewares.RateLimit()),
//	)
package middlewares
