package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

const (
	defaultRiverMaxWorkers  = 100
	defaultRiverStopTimeout = 30 * time.Second
)

var errRetryRequested = errors.New("queue: retry requested")

// riverMessageArgs is the River job payload for every queue message.
type riverMessageArgs struct {
	ContentType ContentType `json:"content_type"`
	Body        []byte      `json:"body"`
}

func (riverMessageArgs) Kind() string {
	return "queue_message"
}

// RiverOption configures a River queue.
type RiverOption func(*riverConfig)

type riverConfig struct {
	logger      *slog.Logger
	maxWorkers  int
	stopTimeout time.Duration
}

// WithRiverMaxWorkers bounds concurrent message handlers. Default: 100.
func WithRiverMaxWorkers(n int) RiverOption {
	return func(c *riverConfig) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

// WithRiverStopTimeout bounds the graceful stop. Default: 30s.
func WithRiverStopTimeout(d time.Duration) RiverOption {
	return func(c *riverConfig) {
		if d > 0 {
			c.stopTimeout = d
		}
	}
}

// WithRiverLogger sets the logger for the River client and failed batches.
func WithRiverLogger(l *slog.Logger) RiverOption {
	return func(c *riverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// River is a Postgres-backed queue on top of River. Each message is one River
// job and is delivered as a batch of one. The River schema must be migrated
// before use.
type River struct {
	client  *river.Client[pgx.Tx]
	worker  *riverMessageWorker
	logger  *slog.Logger
	name    string
	stopTTL time.Duration
	mu      sync.Mutex
	running bool
}

// NewRiver creates a River queue named name. Messages can be sent before a
// consumer starts; they are processed once Consume runs.
func NewRiver(pool *pgxpool.Pool, name string, opts ...RiverOption) (*River, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}
	if name == "" {
		name = river.QueueDefault
	}

	cfg := &riverConfig{
		logger:      slog.New(slog.DiscardHandler),
		maxWorkers:  defaultRiverMaxWorkers,
		stopTimeout: defaultRiverStopTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	w := &riverMessageWorker{queue: name, logger: cfg.logger}
	workers := river.NewWorkers()
	river.AddWorker(workers, w)

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:  map[string]river.QueueConfig{name: {MaxWorkers: cfg.maxWorkers}},
		Workers: workers,
		Logger:  cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("queue: create river client: %w", err)
	}

	return &River{
		client:  client,
		worker:  w,
		logger:  cfg.logger,
		name:    name,
		stopTTL: cfg.stopTimeout,
	}, nil
}

// Name returns the River queue name.
func (q *River) Name() string {
	return q.name
}

// Send implements Producer.
func (q *River) Send(ctx context.Context, body []byte, opts SendOptions) error {
	if len(body) == 0 {
		return ErrEmptyBody
	}
	args, insertOpts := q.insertParams(body, opts)
	if _, err := q.client.Insert(ctx, args, insertOpts); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}

// SendTx inserts the message within tx; it becomes visible when tx commits.
func (q *River) SendTx(ctx context.Context, tx pgx.Tx, body []byte, opts SendOptions) error {
	if len(body) == 0 {
		return ErrEmptyBody
	}
	args, insertOpts := q.insertParams(body, opts)
	if _, err := q.client.InsertTx(ctx, tx, args, insertOpts); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}

// SendBatch implements Producer with a single InsertMany.
func (q *River) SendBatch(ctx context.Context, msgs []OutgoingMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	params := make([]river.InsertManyParams, 0, len(msgs))
	for _, m := range msgs {
		if len(m.Body) == 0 {
			return ErrEmptyBody
		}
		args, insertOpts := q.insertParams(m.Body, m.Options)
		params = append(params, river.InsertManyParams{Args: args, InsertOpts: insertOpts})
	}
	if _, err := q.client.InsertMany(ctx, params); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}

func (q *River) insertParams(body []byte, opts SendOptions) (riverMessageArgs, *river.InsertOpts) {
	ct := opts.ContentType
	if ct == "" {
		ct = ContentTypeJSON
	}
	insertOpts := &river.InsertOpts{Queue: q.name}
	if opts.Delay > 0 {
		insertOpts.ScheduledAt = time.Now().Add(opts.Delay)
	}
	return riverMessageArgs{ContentType: ct, Body: body}, insertOpts
}

// Consume implements Consumer. It starts the River client and blocks until
// ctx is cancelled, then stops it gracefully.
func (q *River) Consume(ctx context.Context, handler Handler) error {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return ErrAlreadyRunning
	}
	q.running = true
	q.mu.Unlock()
	defer func() {
		q.mu.Lock()
		q.running = false
		q.mu.Unlock()
	}()

	q.worker.handler.Store(&handler)
	if err := q.client.Start(ctx); err != nil {
		return fmt.Errorf("queue: start river client: %w", err)
	}
	q.logger.InfoContext(ctx, "river consumer started", slog.String("queue", q.name))

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.stopTTL)
	defer cancel()
	if err := q.client.Stop(stopCtx); err != nil {
		return fmt.Errorf("queue: stop river client: %w", err)
	}
	q.logger.InfoContext(stopCtx, "river consumer stopped", slog.String("queue", q.name))
	return nil
}

type riverMessageWorker struct {
	river.WorkerDefaults[riverMessageArgs]
	handler atomic.Pointer[Handler]
	logger  *slog.Logger
	queue   string
}

func (w *riverMessageWorker) Work(ctx context.Context, job *river.Job[riverMessageArgs]) error {
	h := w.handler.Load()
	if h == nil {
		return errors.New("queue: no consumer attached")
	}

	msg := NewMessage(strconv.FormatInt(job.ID, 10), job.Args.Body, job.CreatedAt, job.Attempt)
	msg.ContentType = job.Args.ContentType
	b := &Batch{Queue: w.queue, Messages: []*Message{msg}}

	err := (*h)(ctx, b)
	if err != nil {
		w.logger.ErrorContext(ctx, "queue message failed",
			slog.String("queue", w.queue),
			slog.Int64("job_id", job.ID),
			slog.Int("attempt", job.Attempt),
			slog.Any("error", err),
		)
	}

	if _, retried := b.Settle(err); len(retried) > 0 {
		if d := msg.RetryDelay(); d > 0 {
			return river.JobSnooze(d)
		}
		if err != nil {
			return err
		}
		return errRetryRequested
	}
	return nil
}

var (
	_ Producer = (*River)(nil)
	_ Consumer = (*River)(nil)
)
