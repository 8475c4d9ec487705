package values_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/edgekit/pkg/values"
)

type verifierFunc func(ctx context.Context, email string) error

func (f verifierFunc) Verify(ctx context.Context, email string) error { return f(ctx, email) }

func TestParseEmail(t *testing.T) {
	t.Parallel()

	valid := []string{"john@example.com", "  john.doe+news@mail.example.co.uk ", "a@b.c"}
	for _, s := range valid {
		require.True(t, values.CanParseEmail(s), s)
	}

	invalid := []string{"", "john", "john@", "john@example", "@example.com"}
	for _, s := range invalid {
		_, err := values.ParseEmail(s)
		require.ErrorIs(t, err, values.ErrInvalidEmail, s)
	}

	e, err := values.ParseEmail("  john@example.com ")
	require.NoError(t, err)
	require.Equal(t, "john@example.com", e.String())
}

func TestEmail_Parts(t *testing.T) {
	t.Parallel()

	e, err := values.ParseEmail("john.doe+news@example.com")
	require.NoError(t, err)

	require.Equal(t, "john.doe+news", e.Username())
	require.Equal(t, "example.com", e.Hostname())

	alias, ok := e.Alias()
	require.True(t, ok)
	require.Equal(t, "news", alias)
	require.True(t, e.HasAlias())

	require.Equal(t, "john.doe+promo@example.com", e.WithAlias("promo").String())
	plain := e.WithAlias("")
	require.Equal(t, "john.doe@example.com", plain.String())
	require.False(t, plain.HasAlias())
	require.Equal(t, "john.doe+news@example.com", e.String(), "original is unchanged")

	other, err := e.WithHostname("company.org")
	require.NoError(t, err)
	require.Equal(t, "john.doe+news@company.org", other.String())

	renamed, err := e.WithUsername("jane")
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", renamed.String())

	multi, err := values.ParseEmail("a+b+c@x.io")
	require.NoError(t, err)
	alias, ok = multi.Alias()
	require.True(t, ok)
	require.Equal(t, "b", alias)
}

func TestEmail_Hash(t *testing.T) {
	t.Parallel()

	e, err := values.ParseEmail("john@example.com")
	require.NoError(t, err)
	require.Len(t, e.Hash(), 64)
	require.Equal(t, e.Hash(), e.WithAlias("").Hash())

	other, err := values.ParseEmail("jane@example.com")
	require.NoError(t, err)
	require.NotEqual(t, e.Hash(), other.Hash())
	require.False(t, e.Equal(other))
}

func TestEmail_Verify(t *testing.T) {
	t.Parallel()

	e, err := values.ParseEmail("john@example.com")
	require.NoError(t, err)

	var got string
	require.NoError(t, e.Verify(context.Background(), verifierFunc(func(_ context.Context, s string) error {
		got = s
		return nil
	})))
	require.Equal(t, "john@example.com", got)

	errDisposable := errors.New("disposable")
	err = e.Verify(context.Background(), verifierFunc(func(context.Context, string) error { return errDisposable }))
	require.ErrorIs(t, err, errDisposable)
}

func TestEmail_JSON(t *testing.T) {
	t.Parallel()

	var v struct {
		Email values.Email `json:"email"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"email":"a@b.co"}`), &v))
	require.Equal(t, "a@b.co", v.Email.String())

	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.JSONEq(t, `{"email":"a@b.co"}`, string(b))

	require.ErrorIs(t, json.Unmarshal([]byte(`{"email":"nope"}`), &v), values.ErrInvalidEmail)
}
