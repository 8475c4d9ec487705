package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/edgekit/pkg/kv"
	"github.com/dmitrymomot/edgekit/pkg/session"
)

func TestSession(t *testing.T) {
	t.Parallel()

	t.Run("clean after construction", func(t *testing.T) {
		t.Parallel()
		s := session.New("id", nil)
		require.False(t, s.IsDirty())
		require.Equal(t, "id", s.ID())
		require.Empty(t, s.Data())
	})

	t.Run("every mutation marks dirty", func(t *testing.T) {
		t.Parallel()
		for name, mutate := range map[string]func(*session.Session){
			"set":   func(s *session.Session) { s.Set("k", "v") },
			"unset": func(s *session.Session) { s.Unset("k") },
			"flash": func(s *session.Session) { s.Flash("k", "v") },
		} {
			s := session.New("id", nil)
			mutate(s)
			require.True(t, s.IsDirty(), name)
		}
	})

	t.Run("get and has", func(t *testing.T) {
		t.Parallel()
		s := session.New("id", map[string]any{"name": "Ada"})
		require.True(t, s.Has("name"))
		require.False(t, s.Has("missing"))
		require.Equal(t, "Ada", s.GetString("name"))

		v, ok := s.Get("missing")
		require.False(t, ok)
		require.Nil(t, v)
	})

	t.Run("flash is read once", func(t *testing.T) {
		t.Parallel()
		s := session.New("id", nil)
		s.Flash("notice", "saved")
		require.True(t, s.Has("notice"))
		require.Contains(t, s.Data(), "__flash_notice__")

		v, ok := s.Get("notice")
		require.True(t, ok)
		require.Equal(t, "saved", v)

		v, ok = s.Get("notice")
		require.False(t, ok)
		require.Nil(t, v)
		require.False(t, s.Has("notice"))
	})

	t.Run("unset removes value", func(t *testing.T) {
		t.Parallel()
		s := session.New("id", map[string]any{"k": 1})
		s.Unset("k")
		require.False(t, s.Has("k"))
	})

	t.Run("unset keeps flash entry", func(t *testing.T) {
		t.Parallel()
		s := session.New("id", nil)
		s.Flash("notice", "saved")
		s.Unset("notice")

		v, ok := s.Get("notice")
		require.True(t, ok)
		require.Equal(t, "saved", v)
	})

	t.Run("data is a copy", func(t *testing.T) {
		t.Parallel()
		s := session.New("id", map[string]any{"k": 1})
		d := s.Data()
		d["k"] = 2
		v, _ := s.Get("k")
		require.Equal(t, 1, v)
	})
}

func TestValue(t *testing.T) {
	t.Parallel()

	s := session.New("id", map[string]any{"count": float64(3), "name": "Ada"})

	n, err := session.Value[int](s, "count")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	name, err := session.Value[string](s, "name")
	require.NoError(t, err)
	require.Equal(t, "Ada", name)

	_, err = session.Value[int](s, "name")
	require.ErrorIs(t, err, session.ErrTypeMismatch)

	_, err = session.Value[int](s, "missing")
	require.ErrorIs(t, err, session.ErrNotFound)

	require.Equal(t, 7, session.ValueOr(s, "missing", 7))
}

func TestKVStorage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	newStorage := func(t *testing.T) (*session.KVStorage, *kv.KV) {
		t.Helper()
		mem := kv.NewMemory(kv.WithCleanupInterval(0))
		t.Cleanup(func() { _ = mem.Close() })
		k := kv.New(mem)
		return session.NewKVStorage(k), k
	}

	t.Run("read without id generates one", func(t *testing.T) {
		t.Parallel()
		st, _ := newStorage(t)

		a, err := st.Read(ctx, "")
		require.NoError(t, err)
		b, err := st.Read(ctx, "")
		require.NoError(t, err)
		require.NotEmpty(t, a.ID())
		require.NotEqual(t, a.ID(), b.ID())
		require.Empty(t, a.Data())
	})

	t.Run("read unknown id returns empty session with that id", func(t *testing.T) {
		t.Parallel()
		st, _ := newStorage(t)

		s, err := st.Read(ctx, "abc")
		require.NoError(t, err)
		require.Equal(t, "abc", s.ID())
		require.Empty(t, s.Data())
	})

	t.Run("save writes full data under prefix", func(t *testing.T) {
		t.Parallel()
		st, k := newStorage(t)

		s, err := st.Read(ctx, "abc")
		require.NoError(t, err)
		s.Set("user", "ada")
		s.Flash("notice", "hi")
		require.NoError(t, st.Save(ctx, s))

		res, err := k.Get(ctx, "session:abc")
		require.NoError(t, err)
		require.JSONEq(t, `{"user":"ada","__flash_notice__":"hi"}`, string(res.Data))

		loaded, err := st.Read(ctx, "abc")
		require.NoError(t, err)
		require.False(t, loaded.IsDirty())
		require.Equal(t, "ada", loaded.GetString("user"))
		require.Equal(t, "hi", loaded.GetString("notice"))
		require.False(t, loaded.Has("notice"))
	})

	t.Run("destroy deletes record", func(t *testing.T) {
		t.Parallel()
		st, k := newStorage(t)

		s := session.New("gone", nil)
		s.Set("a", 1)
		require.NoError(t, st.Save(ctx, s))
		require.NoError(t, st.Destroy(ctx, s))

		has, err := k.Has(ctx, "session:gone")
		require.NoError(t, err)
		require.False(t, has)
	})

	t.Run("last write wins", func(t *testing.T) {
		t.Parallel()
		st, _ := newStorage(t)

		a, _ := st.Read(ctx, "shared")
		b, _ := st.Read(ctx, "shared")
		a.Set("who", "a")
		b.Set("who", "b")
		require.NoError(t, st.Save(ctx, a))
		require.NoError(t, st.Save(ctx, b))

		s, err := st.Read(ctx, "shared")
		require.NoError(t, err)
		require.Equal(t, "b", s.GetString("who"))
	})
}
