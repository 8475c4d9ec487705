package job_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/edgekit/pkg/deferred"
	"github.com/dmitrymomot/edgekit/pkg/job"
	"github.com/dmitrymomot/edgekit/pkg/queue"
)

type sentMessage struct {
	body []byte
	opts queue.SendOptions
}

type recordingProducer struct {
	err  error
	sent []sentMessage
}

func (p *recordingProducer) Send(_ context.Context, body []byte, opts queue.SendOptions) error {
	p.sent = append(p.sent, sentMessage{body: body, opts: opts})
	return p.err
}

func (p *recordingProducer) SendBatch(ctx context.Context, msgs []queue.OutgoingMessage) error {
	for _, m := range msgs {
		_ = p.Send(ctx, m.Body, m.Options)
	}
	return p.err
}

type failingEnqueuer struct{}

func (failingEnqueuer) Enqueue(context.Context, any, ...queue.EnqueueOption) error {
	return errors.New("broker down")
}

func TestBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload any
		want    string
		wantErr bool
	}{
		{name: "struct", payload: welcomePayload{UserID: 1, Email: "a@b.co"}, want: `{"email":"a@b.co","user_id":1,"job":"welcome"}`},
		{name: "map", payload: map[string]any{"n": 1}, want: `{"n":1,"job":"welcome"}`},
		{name: "nil", payload: nil, want: `{"job":"welcome"}`},
		{name: "job field is overwritten", payload: map[string]any{"job": "other"}, want: `{"job":"welcome"}`},
		{name: "raw object", payload: json.RawMessage(`{"a":true}`), want: `{"a":true,"job":"welcome"}`},
		{name: "array", payload: []int{1}, wantErr: true},
		{name: "string", payload: "hello", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			body, err := job.Body("welcome", tt.payload)
			if tt.wantErr {
				require.ErrorIs(t, err, job.ErrInvalidPayload)
				return
			}
			require.NoError(t, err)
			require.JSONEq(t, tt.want, string(body))
		})
	}
}

func TestEnqueue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	welcome := job.New("welcome", func(context.Context, welcomePayload) error { return nil })

	t.Run("sends job body through queue", func(t *testing.T) {
		t.Parallel()

		p := &recordingProducer{}
		q := queue.New(p, deferred.Inline{})

		err := job.Enqueue(ctx, q, welcome, welcomePayload{UserID: 3}, queue.WithDelay(0))
		require.NoError(t, err)
		require.Len(t, p.sent, 1)
		require.JSONEq(t, `{"job":"welcome","user_id":3,"email":""}`, string(p.sent[0].body))
		require.Equal(t, queue.ContentTypeJSON, p.sent[0].opts.ContentType)
	})

	t.Run("invalid payload is not sent", func(t *testing.T) {
		t.Parallel()

		p := &recordingProducer{}
		err := job.Enqueue(ctx, queue.New(p, deferred.Inline{}), welcome, 42)
		require.ErrorIs(t, err, job.ErrInvalidPayload)
		require.Empty(t, p.sent)
	})

	t.Run("enqueue error", func(t *testing.T) {
		t.Parallel()

		err := job.Enqueue(ctx, failingEnqueuer{}, welcome, nil)
		require.ErrorIs(t, err, job.ErrEnqueueFailed)
	})
}
