// Package logger builds the slog loggers used across edgekit.
//
// Every component accepts a *slog.Logger through a WithLogger option and
// falls back to NewNope when none is given. Application code usually builds
// one logger at startup:
//
//	log := logger.New(
//		logger.WithLevel(slog.LevelDebug),
//		logger.WithExtractors(edgekit.EventExtractor()),
//		logger.WithSentry(logger.SentryConfig{DSN: os.Getenv("SENTRY_DSN")}),
//	)
//
// Context extractors run on each log call, so attributes stored in the
// request context (event kind, request id) show up on every record logged
// with the *Context variants of slog methods. With a Sentry DSN configured,
// errors become Sentry issues and warnings are kept as searchable logs; an
// empty DSN keeps the logger stdout-only.
package logger
