package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
)

// flashKey is the storage key of a flash entry.
func flashKey(key string) string {
	return "__flash_" + key + "__"
}

// Session is an in-memory map of JSON-serializable values identified by an opaque id.
// It is not safe for concurrent use; one request owns it at a time.
type Session struct {
	data  map[string]any
	id    string
	dirty bool
}

// New creates a session seeded with data. A nil map starts empty.
func New(id string, data map[string]any) *Session {
	if data == nil {
		data = make(map[string]any)
	}
	return &Session{id: id, data: data}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Data returns a copy of the stored values, flash entries included.
func (s *Session) Data() map[string]any {
	return maps.Clone(s.data)
}

// Has reports whether key is set, either as a value or as a flash entry.
func (s *Session) Has(key string) bool {
	if _, ok := s.data[key]; ok {
		return true
	}
	_, ok := s.data[flashKey(key)]
	return ok
}

// Get returns the value for key. A flash entry is returned once and then removed.
// Reading a flash entry does not mark the session dirty; persist it with Save to make the removal stick.
func (s *Session) Get(key string) (any, bool) {
	if v, ok := s.data[key]; ok {
		return v, true
	}
	fk := flashKey(key)
	if v, ok := s.data[fk]; ok {
		delete(s.data, fk)
		return v, true
	}
	return nil, false
}

// GetString returns the value for key when it holds a string.
func (s *Session) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// Set stores value under key.
func (s *Session) Set(key string, value any) {
	s.data[key] = value
	s.dirty = true
}

// Unset removes the value stored under key. A pending flash entry with
// the same name is kept.
func (s *Session) Unset(key string) {
	delete(s.data, key)
	s.dirty = true
}

// Flash stores value under key for a single read.
func (s *Session) Flash(key string, value any) {
	s.data[flashKey(key)] = value
	s.dirty = true
}

// IsDirty reports whether Set, Unset or Flash was called since the session was created.
// It never resets on its own.
func (s *Session) IsDirty() bool {
	return s.dirty
}

// Value returns key converted to T. Values loaded from storage went through JSON,
// so numbers arrive as float64; Value converts them through JSON when a direct assertion fails.
func Value[T any](s *Session, key string) (T, error) {
	var zero T
	if s == nil {
		return zero, ErrNotFound
	}
	v, ok := s.Get(key)
	if !ok {
		return zero, ErrNotFound
	}
	if typed, ok := v.(T); ok {
		return typed, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("%w: %s", ErrTypeMismatch, key)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, errors.Join(fmt.Errorf("%w: %s", ErrTypeMismatch, key), err)
	}
	return out, nil
}

// ValueOr is Value with a fallback for missing or mistyped keys.
func ValueOr[T any](s *Session, key string, fallback T) T {
	v, err := Value[T](s, key)
	if err != nil {
		return fallback
	}
	return v
}
