package logger

import (
	"io"
	"log/slog"
	"os"
)

// Format selects the output encoding of the stdout handler.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

type options struct {
	writer     io.Writer
	format     Format
	level      slog.Level
	extractors []ContextExtractor
	sentry     *SentryConfig
}

// Option configures a logger built with New.
type Option func(*options)

// WithLevel sets the minimum level written to the output.
func WithLevel(level slog.Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithWriter redirects output away from stdout.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.writer = w
		}
	}
}

// WithFormat switches between JSON (default) and text output.
func WithFormat(f Format) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithExtractors adds context extractors evaluated on every log call.
func WithExtractors(extractors ...ContextExtractor) Option {
	return func(o *options) {
		o.extractors = append(o.extractors, extractors...)
	}
}

// WithSentry forwards warnings and errors to Sentry.
// An empty DSN leaves the logger writing to the output only.
func WithSentry(cfg SentryConfig) Option {
	return func(o *options) {
		o.sentry = &cfg
	}
}

// New builds a structured logger. Without options it writes JSON at info level to stdout.
func New(opts ...Option) *slog.Logger {
	o := &options{
		writer: os.Stdout,
		format: FormatJSON,
		level:  slog.LevelInfo,
	}
	for _, opt := range opts {
		opt(o)
	}

	ho := &slog.HandlerOptions{Level: o.level}
	var h slog.Handler
	if o.format == FormatText {
		h = slog.NewTextHandler(o.writer, ho)
	} else {
		h = slog.NewJSONHandler(o.writer, ho)
	}

	if o.sentry != nil {
		if sh := newSentryHandler(*o.sentry, h); sh != nil {
			h = fanout(h, sh)
		}
	}

	return slog.New(withExtractors(h, o.extractors...))
}

// NewNope creates a logger that discards everything.
// Components use it when no logger is configured.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
