package storage

import (
	"context"
	"io"
	"time"
)

// Object describes a stored object without its body.
type Object struct {
	Uploaded    time.Time
	Metadata    map[string]string
	Key         string
	ContentType string
	ETag        string
	Size        int64
}

// ObjectBody is an object together with its content.
// The caller must close Body.
type ObjectBody struct {
	Body io.ReadCloser
	Object
}

// PutOptions carries the HTTP and custom metadata stored with an object.
// Size is optional; backends that need a content length compute it when it is zero.
type PutOptions struct {
	Metadata    map[string]string
	ContentType string
	Size        int64
}

// ListOptions narrows a List call.
type ListOptions struct {
	Prefix    string
	Cursor    string
	Delimiter string
	Limit     int
}

// ListResult is one page of a bucket listing.
// Prefixes holds the common prefixes rolled up by Delimiter.
type ListResult struct {
	Cursor    string
	Objects   []Object
	Prefixes  []string
	Truncated bool
}

// Bucket is the object storage binding the FS wrapper delegates to.
// Get and Head return ErrNotFound for missing keys.
type Bucket interface {
	Get(ctx context.Context, key string) (*ObjectBody, error)
	Head(ctx context.Context, key string) (*Object, error)
	Put(ctx context.Context, key string, body io.Reader, opts PutOptions) (*Object, error)
	Delete(ctx context.Context, keys ...string) error
	List(ctx context.Context, opts ListOptions) (*ListResult, error)
}

// Limits applied to List calls.
const (
	DefaultListLimit = 1000
	DefaultDelimiter = "/"
)

func listLimit(n int) int {
	if n <= 0 || n > DefaultListLimit {
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
