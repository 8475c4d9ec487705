//go:build integration

package queue_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/edgekit/pkg/queue"
)

func sqsClient(t *testing.T) *sqs.Client {
	t.Helper()
	endpoint := os.Getenv("SQS_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:4566"
	}
	return sqs.New(sqs.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider("test", "test", ""),
	})
}

func TestSQS_Integration(t *testing.T) {
	ctx := context.Background()
	client := sqsClient(t)

	created, err := client.CreateQueue(ctx, &sqs.CreateQueueInput{
		QueueName: aws.String("edgekit-" + uuid.NewString()[:8]),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = client.DeleteQueue(context.Background(), &sqs.DeleteQueueInput{QueueUrl: created.QueueUrl})
	})

	q, err := queue.NewSQS(ctx, queue.SQSConfig{
		QueueURL:          *created.QueueUrl,
		WaitTime:          time.Second,
		VisibilityTimeout: time.Second,
	}, queue.WithSQSClient(client))
	require.NoError(t, err)

	require.NoError(t, q.Send(ctx, []byte(`{"n":1}`), queue.SendOptions{}))
	require.NoError(t, q.SendBatch(ctx, []queue.OutgoingMessage{
		{Body: []byte("two"), Options: queue.SendOptions{ContentType: queue.ContentTypeText}},
		{Body: []byte(`{"n":3}`)},
	}))

	var (
		mu   sync.Mutex
		seen = map[string]queue.ContentType{}
	)
	consumeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- q.Consume(consumeCtx, func(_ context.Context, b *queue.Batch) error {
			mu.Lock()
			defer mu.Unlock()
			for _, m := range b.Messages {
				seen[string(m.Body)] = m.ContentType
			}
			return nil
		})
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	}, 15*time.Second, 100*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, queue.ContentTypeText, seen["two"])
	require.Equal(t, queue.ContentTypeJSON, seen[`{"n":1}`])
}
