package job

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/tidwall/sjson"

	"github.com/dmitrymomot/edgekit/pkg/queue"
)

// Enqueuer accepts JSON payloads for a queue. *queue.Queue implements it.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload any, opts ...queue.EnqueueOption) error
}

// Enqueue sends payload for j to q. The message body is payload's JSON
// object with a "job" field set to j.Name(). A nil payload sends only the
// job name. Payloads that do not encode to a JSON object are rejected.
//
// Example:
//
//	err := job.Enqueue(ctx, q, welcome, WelcomePayload{UserID: 1, Email: "a@b.co"},
//	    queue.WithDelay(time.Minute))
func Enqueue(ctx context.Context, q Enqueuer, j Job, payload any, opts ...queue.EnqueueOption) error {
	body, err := Body(j.Name(), payload)
	if err != nil {
		return err
	}
	if err := q.Enqueue(ctx, json.RawMessage(body), opts...); err != nil {
		return errors.Join(ErrEnqueueFailed, err)
	}
	return nil
}

// Body builds the message body for job name and payload.
func Body(name string, payload any) ([]byte, error) {
	raw := []byte(`{}`)
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
		b = bytes.TrimSpace(b)
		switch {
		case bytes.Equal(b, []byte("null")):
		case len(b) > 0 && b[0] == '{':
			raw = b
		default:
			return nil, ErrInvalidPayload
		}
	}

	body, err := sjson.SetBytes(raw, "job", name)
	if err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	return body, nil
}
