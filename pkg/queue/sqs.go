package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// contentTypeAttribute is the message attribute carrying the ContentType.
const contentTypeAttribute = "content-type"

// SQS limits.
const (
	sqsMaxBatch    = 10
	sqsMaxWaitTime = 20 * time.Second
	sqsMaxDelay    = 15 * time.Minute
)

// SQSConfig configures an SQS queue.
type SQSConfig struct {
	QueueURL          string        `env:"SQS_QUEUE_URL,required" yaml:"queue_url"`
	Region            string        `env:"SQS_REGION" yaml:"region"`
	Endpoint          string        `env:"SQS_ENDPOINT" yaml:"endpoint"`
	WaitTime          time.Duration `env:"SQS_WAIT_TIME" envDefault:"20s" yaml:"wait_time"`
	VisibilityTimeout time.Duration `env:"SQS_VISIBILITY_TIMEOUT" envDefault:"30s" yaml:"visibility_timeout"`
	MaxMessages       int32         `env:"SQS_MAX_MESSAGES" envDefault:"10" yaml:"max_messages"`
}

// SQS is an Amazon SQS queue. It implements Producer and Consumer.
type SQS struct {
	client *sqs.Client
	logger *slog.Logger
	cfg    SQSConfig
	name   string
}

// SQSOption configures an SQS queue.
type SQSOption func(*SQS)

// WithSQSLogger sets the consumer logger.
func WithSQSLogger(l *slog.Logger) SQSOption {
	return func(q *SQS) {
		if l != nil {
			q.logger = l
		}
	}
}

// WithSQSClient replaces the client built from the default AWS configuration.
func WithSQSClient(c *sqs.Client) SQSOption {
	return func(q *SQS) {
		q.client = c
	}
}

// NewSQS creates an SQS queue using the default AWS credential chain.
func NewSQS(ctx context.Context, cfg SQSConfig, opts ...SQSOption) (*SQS, error) {
	if cfg.QueueURL == "" {
		return nil, ErrInvalidConfig
	}
	if cfg.MaxMessages <= 0 || cfg.MaxMessages > sqsMaxBatch {
		cfg.MaxMessages = sqsMaxBatch
	}
	if cfg.WaitTime <= 0 || cfg.WaitTime > sqsMaxWaitTime {
		cfg.WaitTime = sqsMaxWaitTime
	}

	q := &SQS{
		cfg:    cfg,
		name:   queueNameFromURL(cfg.QueueURL),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(q)
	}

	if q.client == nil {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}
		q.client = sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
		})
	}

	return q, nil
}

// Name returns the queue name parsed from the queue URL.
func (q *SQS) Name() string {
	return q.name
}

// Send implements Producer. Delays are capped at 15 minutes.
func (q *SQS) Send(ctx context.Context, body []byte, opts SendOptions) error {
	if len(body) == 0 {
		return ErrEmptyBody
	}
	_, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(q.cfg.QueueURL),
		MessageBody:       aws.String(string(body)),
		DelaySeconds:      delaySeconds(opts.Delay),
		MessageAttributes: contentTypeAttributes(opts.ContentType),
	})
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}

// SendBatch implements Producer, splitting msgs into requests of ten.
func (q *SQS) SendBatch(ctx context.Context, msgs []OutgoingMessage) error {
	for start := 0; start < len(msgs); start += sqsMaxBatch {
		end := min(start+sqsMaxBatch, len(msgs))
		entries := make([]types.SendMessageBatchRequestEntry, 0, end-start)
		for i, m := range msgs[start:end] {
			if len(m.Body) == 0 {
				return ErrEmptyBody
			}
			entries = append(entries, types.SendMessageBatchRequestEntry{
				Id:                aws.String(strconv.Itoa(start + i)),
				MessageBody:       aws.String(string(m.Body)),
				DelaySeconds:      delaySeconds(m.Options.Delay),
				MessageAttributes: contentTypeAttributes(m.Options.ContentType),
			})
		}

		out, err := q.client.SendMessageBatch(ctx, &sqs.SendMessageBatchInput{
			QueueUrl: aws.String(q.cfg.QueueURL),
			Entries:  entries,
		})
		if err != nil {
			return errors.Join(ErrSendFailed, err)
		}
		if len(out.Failed) > 0 {
			f := out.Failed[0]
			return fmt.Errorf("%w: entry %s: %s", ErrSendFailed, aws.ToString(f.Id), aws.ToString(f.Message))
		}
	}
	return nil
}

// Consume implements Consumer with long polling. Acknowledged messages are
// deleted; retried ones become visible again after their retry delay.
func (q *SQS) Consume(ctx context.Context, handler Handler) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(q.cfg.QueueURL),
			MaxNumberOfMessages: q.cfg.MaxMessages,
			WaitTimeSeconds:     int32(q.cfg.WaitTime / time.Second),
			VisibilityTimeout:   int32(q.cfg.VisibilityTimeout / time.Second),
			MessageAttributeNames: []string{
				contentTypeAttribute,
			},
			MessageSystemAttributeNames: []types.MessageSystemAttributeName{
				types.MessageSystemAttributeNameApproximateReceiveCount,
				types.MessageSystemAttributeNameSentTimestamp,
			},
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			q.logger.ErrorContext(ctx, "sqs receive failed", slog.Any("error", err))
			if !sleep(ctx, time.Second) {
				return nil
			}
			continue
		}
		if len(out.Messages) == 0 {
			continue
		}

		q.deliver(ctx, out.Messages, handler)
	}
}

func (q *SQS) deliver(ctx context.Context, raw []types.Message, handler Handler) {
	b := &Batch{Queue: q.name, Messages: make([]*Message, 0, len(raw))}
	receipts := make(map[*Message]string, len(raw))
	for _, m := range raw {
		msg := messageFromAttributes(aws.ToString(m.MessageId), aws.ToString(m.Body), m.Attributes)
		if attr, ok := m.MessageAttributes[contentTypeAttribute]; ok {
			msg.ContentType = ContentType(aws.ToString(attr.StringValue))
		}
		b.Messages = append(b.Messages, msg)
		receipts[msg] = aws.ToString(m.ReceiptHandle)
	}

	hctx := context.WithoutCancel(ctx)
	err := handler(hctx, b)
	if err != nil {
		q.logger.ErrorContext(ctx, "queue batch failed",
			slog.String("queue", q.name),
			slog.Int("messages", len(raw)),
			slog.Any("error", err),
		)
	}

	acked, retried := b.Settle(err)

	if len(acked) > 0 {
		entries := make([]types.DeleteMessageBatchRequestEntry, 0, len(acked))
		for i, m := range acked {
			entries = append(entries, types.DeleteMessageBatchRequestEntry{
				Id:            aws.String(strconv.Itoa(i)),
				ReceiptHandle: aws.String(receipts[m]),
			})
		}
		if _, err := q.client.DeleteMessageBatch(hctx, &sqs.DeleteMessageBatchInput{
			QueueUrl: aws.String(q.cfg.QueueURL),
			Entries:  entries,
		}); err != nil {
			q.logger.ErrorContext(ctx, "sqs delete failed", slog.Any("error", err))
		}
	}

	for _, m := range retried {
		if _, err := q.client.ChangeMessageVisibility(hctx, &sqs.ChangeMessageVisibilityInput{
			QueueUrl:          aws.String(q.cfg.QueueURL),
			ReceiptHandle:     aws.String(receipts[m]),
			VisibilityTimeout: delaySeconds(m.RetryDelay()),
		}); err != nil {
			q.logger.ErrorContext(ctx, "sqs change visibility failed",
				slog.String("message_id", m.ID),
				slog.Any("error", err),
			)
		}
	}
}

func messageFromAttributes(id, body string, attrs map[string]string) *Message {
	attempts := 1
	if n, err := strconv.Atoi(attrs[string(types.MessageSystemAttributeNameApproximateReceiveCount)]); err == nil && n > 0 {
		attempts = n
	}
	ts := time.Now().UTC()
	if ms, err := strconv.ParseInt(attrs[string(types.MessageSystemAttributeNameSentTimestamp)], 10, 64); err == nil {
		ts = time.UnixMilli(ms).UTC()
	}
	return NewMessage(id, []byte(body), ts, attempts)
}

func contentTypeAttributes(ct ContentType) map[string]types.MessageAttributeValue {
	if ct == "" {
		ct = ContentTypeJSON
	}
	return map[string]types.MessageAttributeValue{
		contentTypeAttribute: {
			DataType:    aws.String("String"),
			StringValue: aws.String(string(ct)),
		},
	}
}

func delaySeconds(d time.Duration) int32 {
	if d <= 0 {
		return 0
	}
	return int32(min(d, sqsMaxDelay) / time.Second)
}

func queueNameFromURL(u string) string {
	u = strings.TrimRight(u, "/")
	if i := strings.LastIndex(u, "/"); i >= 0 {
		return u[i+1:]
	}
	return u
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

var (
	_ Producer = (*SQS)(nil)
	_ Consumer = (*SQS)(nil)
)
