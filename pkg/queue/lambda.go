package queue

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// LambdaHandler adapts handler to an AWS Lambda SQS event source.
// Retried messages are reported as batch item failures; this requires
// ReportBatchItemFailures on the event source mapping. Retry delays are not
// applied because the mapping controls redelivery.
func LambdaHandler(queueName string, handler Handler, logger *slog.Logger) func(context.Context, events.SQSEvent) (events.SQSEventResponse, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return func(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
		b := BatchFromSQSEvent(queueName, ev)

		err := handler(ctx, b)
		if err != nil {
			logger.ErrorContext(ctx, "queue batch failed",
				slog.String("queue", queueName),
				slog.Int("messages", len(b.Messages)),
				slog.Any("error", err),
			)
		}

		_, retried := b.Settle(err)
		resp := events.SQSEventResponse{}
		for _, m := range retried {
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: m.ID,
			})
		}
		return resp, nil
	}
}

// BatchFromSQSEvent converts Lambda SQS records into a Batch. An empty
// queueName is taken from the event source ARN.
func BatchFromSQSEvent(queueName string, ev events.SQSEvent) *Batch {
	if queueName == "" && len(ev.Records) > 0 {
		arn := ev.Records[0].EventSourceARN
		queueName = arn[strings.LastIndex(arn, ":")+1:]
	}
	b := &Batch{Queue: queueName, Messages: make([]*Message, 0, len(ev.Records))}
	for _, r := range ev.Records {
		msg := messageFromAttributes(r.MessageId, r.Body, r.Attributes)
		if attr, ok := r.MessageAttributes[contentTypeAttribute]; ok && attr.StringValue != nil {
			msg.ContentType = ContentType(*attr.StringValue)
		}
		b.Messages = append(b.Messages, msg)
	}
	return b
}
