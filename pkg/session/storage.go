package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/edgekit/pkg/kv"
)

// Prefix namespaces session records in the key-value store.
const Prefix = "session"

// Storage loads and persists sessions.
type Storage interface {
	// Read loads the session with id, or starts an empty one. An empty id gets a random one.
	Read(ctx context.Context, id string) (*Session, error)
	// Save writes the full session data.
	Save(ctx context.Context, s *Session) error
	// Destroy deletes the stored session.
	Destroy(ctx context.Context, s *Session) error
}

// KVOption configures a KVStorage.
type KVOption func(*KVStorage)

// WithTTL expires stored sessions after d of inactivity. Zero keeps them forever.
func WithTTL(d time.Duration) KVOption {
	return func(s *KVStorage) {
		s.ttl = d
	}
}

// WithIDGenerator replaces the random UUID generator.
func WithIDGenerator(gen func() string) KVOption {
	return func(s *KVStorage) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// KVStorage keeps sessions as JSON under "session:<id>".
// Concurrent saves of one session are last-write-wins.
type KVStorage struct {
	kv    *kv.KV
	newID func() string
	ttl   time.Duration
}

// NewKVStorage creates a KV-backed session storage.
func NewKVStorage(store *kv.KV, opts ...KVOption) *KVStorage {
	s := &KVStorage{kv: store, newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func key(id string) string {
	return Prefix + ":" + id
}

// Read implements Storage.
func (st *KVStorage) Read(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return New(st.newID(), nil), nil
	}

	var data map[string]any
	if _, err := st.kv.GetInto(ctx, key(id), &data); err != nil {
		if errors.Is(err, kv.ErrUnmarshal) {
			return nil, errors.Join(ErrUnmarshal, err)
		}
		return nil, err
	}
	return New(id, data), nil
}

// Save implements Storage.
func (st *KVStorage) Save(ctx context.Context, s *Session) error {
	var opts []kv.SetOption
	if st.ttl > 0 {
		opts = append(opts, kv.WithTTL(st.ttl))
	}
	if err := st.kv.Set(ctx, key(s.ID()), s.data, opts...); err != nil {
		if errors.Is(err, kv.ErrMarshal) {
			return errors.Join(ErrMarshal, err)
		}
		return err
	}
	return nil
}

// Destroy implements Storage.
func (st *KVStorage) Destroy(ctx context.Context, s *Session) error {
	return st.kv.Del(ctx, key(s.ID()))
}

var _ Storage = (*KVStorage)(nil)
