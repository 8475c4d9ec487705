package job

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/edgekit/pkg/queue"
)

// ErrorHandler receives failed messages. It decides whether to retry;
// the Manager never retries on its own.
//
// Example:
//
//	job.WithErrorHandler(func(ctx context.Context, err error, msg *queue.Message) {
//	    if msg.Attempts < 3 {
//	        msg.Retry(queue.WithRetryDelay(time.Minute))
//	    }
//	})
type ErrorHandler func(ctx context.Context, err error, msg *queue.Message)

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger used for failed messages.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithErrorHandler sets the handler called for every failed message.
func WithErrorHandler(h ErrorHandler) ManagerOption {
	return func(m *Manager) {
		m.onError = h
	}
}

// WithJobs registers jobs at construction.
func WithJobs(jobs ...Job) ManagerOption {
	return func(m *Manager) {
		m.Register(jobs...)
	}
}
