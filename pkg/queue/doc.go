// Package queue sends payloads for later processing and delivers them to
// consumers in batches.
//
// A Producer is the send-side binding; Memory, SQS and River implement it
// together with Consumer. Queue wraps a Producer and sends through the
// deferred hook, so handlers return before the broker answers:
//
//	q := queue.New(producer, deferredGroup)
//	if err := q.Enqueue(ctx, map[string]any{"userId": 42}, queue.WithDelay(time.Minute)); err != nil {
//		return err // payload could not be encoded
//	}
//
// Consumers receive a Batch. Each Message is acknowledged or retried
// explicitly; messages left unsettled are acknowledged when the handler
// returns nil and retried when it returns an error:
//
//	err := consumer.Consume(ctx, func(ctx context.Context, b *queue.Batch) error {
//		for _, m := range b.Messages {
//			if err := process(m.Body); err != nil {
//				m.Retry(queue.WithRetryDelay(30 * time.Second))
//				continue
//			}
//			m.Ack()
//		}
//		return nil
//	})
//
// LambdaHandler runs the same Handler inside an AWS Lambda function fed by an
// SQS event source and reports retried messages as batch item failures.
package queue
