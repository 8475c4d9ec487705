package kv

import (
	"container/list"
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	expiresAt time.Time
	meta      map[string]string
	key       string
	value     []byte
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithCleanupInterval sets how often expired keys are swept. Zero disables the sweeper.
// Default: 1 minute.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(m *Memory) {
		m.cleanupInterval = d
	}
}

// WithMaxEntries bounds the store size; the least recently used key is evicted first.
// Zero means unlimited.
func WithMaxEntries(n int) MemoryOption {
	return func(m *Memory) {
		m.maxEntries = n
	}
}

// Memory is an in-process Store for development and tests.
// Lookups are O(1); LRU order is kept in a doubly-linked list.
type Memory struct {
	items           map[string]*list.Element
	lru             *list.List
	done            chan struct{}
	cleanupInterval time.Duration
	maxEntries      int
	mu              sync.Mutex
	closed          bool
}

// NewMemory creates a Memory store and starts its sweeper.
//
//	store := kv.NewMemory(kv.WithMaxEntries(10_000))
//	defer store.Close()
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		items:           make(map[string]*list.Element),
		lru:             list.New(),
		done:            make(chan struct{}),
		cleanupInterval: time.Minute,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cleanupInterval > 0 {
		go m.sweep()
	}
	return m
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	elem, ok := m.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	e := elem.Value.(*memoryEntry)
	if e.expired(time.Now()) {
		m.remove(elem)
		return nil, ErrNotFound
	}
	m.lru.MoveToFront(elem)

	return &Entry{
		Value:     slices.Clone(e.value),
		Metadata:  cloneMeta(e.meta),
		ExpiresAt: e.expiresAt,
	}, nil
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, key string, value []byte, opts PutOptions) error {
	if key == "" {
		return ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	var expiresAt time.Time
	if opts.TTL > 0 {
		expiresAt = time.Now().Add(opts.TTL)
	}

	if elem, ok := m.items[key]; ok {
		e := elem.Value.(*memoryEntry)
		e.value = slices.Clone(value)
		e.meta = cloneMeta(opts.Metadata)
		e.expiresAt = expiresAt
		m.lru.MoveToFront(elem)
		return nil
	}

	if m.maxEntries > 0 && len(m.items) >= m.maxEntries {
		if oldest := m.lru.Back(); oldest != nil {
			m.remove(oldest)
		}
	}

	m.items[key] = m.lru.PushFront(&memoryEntry{
		key:       key,
		value:     slices.Clone(value),
		meta:      cloneMeta(opts.Metadata),
		expiresAt: expiresAt,
	})
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if elem, ok := m.items[key]; ok {
		m.remove(elem)
	}
	return nil
}

// List implements Store. Keys are returned in lexicographic order.
func (m *Memory) List(_ context.Context, opts ListOptions) (*ListResult, error) {
	offset, err := decodeOffset(opts.Cursor)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	now := time.Now()
	matched := make([]*memoryEntry, 0, len(m.items))
	for key, elem := range m.items {
		e := elem.Value.(*memoryEntry)
		if strings.HasPrefix(key, opts.Prefix) && !e.expired(now) {
			matched = append(matched, e)
		}
	}
	slices.SortFunc(matched, func(a, b *memoryEntry) int { return strings.Compare(a.key, b.key) })

	res := &ListResult{Complete: true}
	if offset >= len(matched) {
		return res, nil
	}

	end := min(offset+listLimit(opts.Limit), len(matched))
	for _, e := range matched[offset:end] {
		res.Keys = append(res.Keys, ListedKey{
			Name:      e.key,
			Metadata:  cloneMeta(e.meta),
			ExpiresAt: e.expiresAt,
		})
	}
	if end < len(matched) {
		res.Complete = false
		res.Cursor = encodeOffset(end)
	}
	return res, nil
}

// Len returns the number of stored keys, expired ones included until swept.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close stops the sweeper. It is idempotent.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	return nil
}

func (m *Memory) sweep() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.deleteExpired()
		}
	}
}

func (m *Memory) deleteExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for elem := m.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*memoryEntry).expired(now) {
			m.remove(elem)
		}
		elem = prev
	}
}

// remove must be called with the mutex held.
func (m *Memory) remove(elem *list.Element) {
	m.lru.Remove(elem)
	delete(m.items, elem.Value.(*memoryEntry).key)
}

var _ Store = (*Memory)(nil)
