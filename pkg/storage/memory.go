package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"
)

type memoryObject struct {
	Object
	data []byte
}

// MemoryBucket is an in-process Bucket for development and tests.
type MemoryBucket struct {
	objects map[string]*memoryObject
	now     func() time.Time
	mu      sync.RWMutex
}

// NewMemoryBucket creates an empty MemoryBucket.
func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{
		objects: make(map[string]*memoryObject),
		now:     time.Now,
	}
}

// Get implements Bucket.
func (b *MemoryBucket) Get(_ context.Context, key string) (*ObjectBody, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &ObjectBody{
		Object: copyObject(obj.Object),
		Body:   io.NopCloser(bytes.NewReader(slices.Clone(obj.data))),
	}, nil
}

// Head implements Bucket.
func (b *MemoryBucket) Head(_ context.Context, key string) (*Object, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	o := copyObject(obj.Object)
	return &o, nil
}

// Put implements Bucket.
func (b *MemoryBucket) Put(_ context.Context, key string, body io.Reader, opts PutOptions) (*Object, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	sum := md5.Sum(data)
	obj := &memoryObject{
		Object: Object{
			Key:         key,
			ContentType: opts.ContentType,
			ETag:        `"` + hex.EncodeToString(sum[:]) + `"`,
			Size:        int64(len(data)),
			Uploaded:    b.now().UTC(),
			Metadata:    cloneMeta(opts.Metadata),
		},
		data: data,
	}

	b.mu.Lock()
	b.objects[key] = obj
	b.mu.Unlock()

	o := copyObject(obj.Object)
	return &o, nil
}

// Delete implements Bucket. Missing keys are ignored.
func (b *MemoryBucket) Delete(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, key := range keys {
		delete(b.objects, key)
	}
	return nil
}

// List implements Bucket. The cursor is the last key or common prefix of the previous page.
func (b *MemoryBucket) List(_ context.Context, opts ListOptions) (*ListResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		if strings.HasPrefix(k, opts.Prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	limit := listLimit(opts.Limit)
	res := &ListResult{}
	seen := make(map[string]struct{})
	last := ""

	for _, k := range keys {
		if opts.Cursor != "" {
			if k <= opts.Cursor {
				continue
			}
			if opts.Delimiter != "" && strings.HasSuffix(opts.Cursor, opts.Delimiter) && strings.HasPrefix(k, opts.Cursor) {
				continue
			}
		}

		if opts.Delimiter != "" {
			rest := k[len(opts.Prefix):]
			if i := strings.Index(rest, opts.Delimiter); i >= 0 {
				p := opts.Prefix + rest[:i+len(opts.Delimiter)]
				if _, ok := seen[p]; ok {
					continue
				}
				if len(res.Objects)+len(res.Prefixes) == limit {
					res.Truncated = true
					break
				}
				seen[p] = struct{}{}
				res.Prefixes = append(res.Prefixes, p)
				last = p
				continue
			}
		}

		if len(res.Objects)+len(res.Prefixes) == limit {
			res.Truncated = true
			break
		}
		res.Objects = append(res.Objects, copyObject(b.objects[k].Object))
		last = k
	}

	if res.Truncated {
		res.Cursor = last
	}
	return res, nil
}

func copyObject(o Object) Object {
	o.Metadata = cloneMeta(o.Metadata)
	return o
}

var _ Bucket = (*MemoryBucket)(nil)
