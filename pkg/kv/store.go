package kv

import (
	"context"
	"encoding/base64"
	"strconv"
	"time"
)

// DefaultListLimit is the page size used when a list call does not set one.
const DefaultListLimit = 1000

// Entry is a stored value together with its metadata.
type Entry struct {
	ExpiresAt time.Time // zero means no expiration
	Metadata  map[string]string
	Value     []byte
}

// PutOptions controls expiration and metadata of a written value.
type PutOptions struct {
	Metadata map[string]string
	TTL      time.Duration // zero or negative means no expiration
}

// ListOptions selects a page of keys.
type ListOptions struct {
	Prefix string
	Cursor string
	Limit  int
}

// ListedKey describes one key returned by List.
type ListedKey struct {
	ExpiresAt time.Time
	Metadata  map[string]string
	Name      string
}

// ListResult is one page of keys. Cursor is empty when Complete is true.
type ListResult struct {
	Cursor   string
	Keys     []ListedKey
	Complete bool
}

// Store is the key-value binding the KV wrapper delegates to.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns ErrNotFound when the key is absent or expired.
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, key string, value []byte, opts PutOptions) error
	// Delete is a no-op for missing keys.
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, opts ListOptions) (*ListResult, error)
}

// encodeOffset and decodeOffset implement offset cursors for stores that page over a sorted key set.
func encodeOffset(offset int) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

func decodeOffset(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	data, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0, ErrInvalidCursor
	}
	n, err := strconv.Atoi(string(data))
	if err != nil || n < 0 {
		return 0, ErrInvalidCursor
	}
	return n, nil
}

func listLimit(n int) int {
	if n <= 0 {
		return DefaultListLimit
	}
	return n
}

func cloneMeta(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
