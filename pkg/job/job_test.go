package job_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/edgekit/pkg/job"
)

type welcomePayload struct {
	Email  string `json:"email"`
	UserID int    `json:"user_id"`
}

func TestNew(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("decodes payload and ignores job field", func(t *testing.T) {
		t.Parallel()

		var got welcomePayload
		j := job.New("send_welcome", func(_ context.Context, p welcomePayload) error {
			got = p
			return nil
		})
		require.Equal(t, "send_welcome", j.Name())

		data, err := j.Validate(json.RawMessage(`{"job":"send_welcome","user_id":7,"email":"a@b.co"}`))
		require.NoError(t, err)
		require.NoError(t, j.Perform(ctx, data))
		require.Equal(t, welcomePayload{UserID: 7, Email: "a@b.co"}, got)
	})

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()

		j := job.New("x", func(context.Context, welcomePayload) error { return nil })
		_, err := j.Validate(json.RawMessage(`{"user_id":"seven"}`))
		require.ErrorIs(t, err, job.ErrInvalidPayload)
	})

	t.Run("validator rejects input", func(t *testing.T) {
		t.Parallel()

		errNoEmail := errors.New("email is required")
		j := job.New("x",
			func(context.Context, welcomePayload) error { return nil },
			job.WithValidator(func(p welcomePayload) error {
				if p.Email == "" {
					return errNoEmail
				}
				return nil
			}),
		)
		_, err := j.Validate(json.RawMessage(`{"user_id":1}`))
		require.ErrorIs(t, err, job.ErrValidationFailed)
		require.ErrorIs(t, err, errNoEmail)
	})

	t.Run("perform rejects foreign data", func(t *testing.T) {
		t.Parallel()

		j := job.New("x", func(context.Context, welcomePayload) error { return nil })
		require.ErrorIs(t, j.Perform(ctx, "nope"), job.ErrInvalidPayload)
	})
}
