package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// File is the public description of a stored object.
type File struct {
	UploadedAt  time.Time         `json:"uploadedAt"`
	Meta        map[string]string `json:"meta,omitempty"`
	Pathname    string            `json:"pathname"`
	ContentType string            `json:"contentType,omitempty"`
	Size        int64             `json:"size"`
}

func fileFromObject(o *Object) *File {
	return &File{
		Pathname:    o.Key,
		ContentType: o.ContentType,
		Size:        o.Size,
		UploadedAt:  o.Uploaded,
		Meta:        o.Metadata,
	}
}

// FileList is one page of files. Cursor is empty once Done is true.
type FileList struct {
	Cursor   string   `json:"cursor,omitempty"`
	Files    []File   `json:"files"`
	Prefixes []string `json:"prefixes,omitempty"`
	Done     bool     `json:"done"`
}

// ListOption narrows a List call.
type ListOption func(*ListOptions)

// WithListPrefix only returns pathnames starting with prefix.
func WithListPrefix(prefix string) ListOption {
	return func(o *ListOptions) {
		o.Prefix = prefix
	}
}

// WithListLimit caps the page size. Values above 1000 are clamped.
func WithListLimit(n int) ListOption {
	return func(o *ListOptions) {
		o.Limit = n
	}
}

// WithCursor continues a previous listing.
func WithCursor(cursor string) ListOption {
	return func(o *ListOptions) {
		o.Cursor = cursor
	}
}

// WithDelimiter sets the grouping character. Empty disables grouping.
// Default: "/".
func WithDelimiter(d string) ListOption {
	return func(o *ListOptions) {
		o.Delimiter = d
	}
}

type uploadOptions struct {
	meta         map[string]string
	contentType  string
	prefix       string
	size         int64
	randomSuffix bool
}

// UploadOption configures an Upload call.
type UploadOption func(*uploadOptions)

// WithContentType sets the stored content type. When omitted it is inferred
// from the pathname extension, then from the leading bytes of the body.
func WithContentType(ct string) UploadOption {
	return func(o *uploadOptions) {
		o.contentType = ct
	}
}

// WithContentLength declares the body size so backends can skip measuring it.
func WithContentLength(n int64) UploadOption {
	return func(o *uploadOptions) {
		o.size = n
	}
}

// WithRandomSuffix appends a random token to the file name, before the extension.
func WithRandomSuffix() UploadOption {
	return func(o *uploadOptions) {
		o.randomSuffix = true
	}
}

// WithPrefix stores the file under prefix.
func WithPrefix(prefix string) UploadOption {
	return func(o *uploadOptions) {
		o.prefix = prefix
	}
}

// WithMeta stores custom metadata alongside the file.
func WithMeta(meta map[string]string) UploadOption {
	return func(o *uploadOptions) {
		o.meta = meta
	}
}

// FS uploads, stores and serves unstructured data kept in a Bucket.
type FS struct {
	bucket Bucket
}

// New wraps a Bucket.
func New(bucket Bucket) *FS {
	return &FS{bucket: bucket}
}

// Binding returns the underlying bucket.
func (fs *FS) Binding() Bucket {
	return fs.bucket
}

// List returns one page of files. The default page size is 1000 and files are
// grouped by "/".
func (fs *FS) List(ctx context.Context, opts ...ListOption) (*FileList, error) {
	lo := ListOptions{Limit: DefaultListLimit, Delimiter: DefaultDelimiter}
	for _, opt := range opts {
		opt(&lo)
	}

	res, err := fs.bucket.List(ctx, lo)
	if err != nil {
		return nil, err
	}

	out := &FileList{
		Files:    make([]File, 0, len(res.Objects)),
		Prefixes: res.Prefixes,
		Done:     !res.Truncated,
	}
	for i := range res.Objects {
		out.Files = append(out.Files, *fileFromObject(&res.Objects[i]))
	}
	if res.Truncated {
		out.Cursor = res.Cursor
	}
	return out, nil
}

// Serve streams the file at pathname to w with its HTTP metadata.
// A missing file results in a 404 response with fallback as its body.
func (fs *FS) Serve(ctx context.Context, w http.ResponseWriter, pathname string, fallback []byte) error {
	obj, err := fs.bucket.Get(ctx, pathname)
	if errors.Is(err, ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		if len(fallback) > 0 {
			_, err = w.Write(fallback)
		}
		return err
	}
	if err != nil {
		return err
	}
	defer obj.Body.Close()

	writeHTTPMetadata(w.Header(), &obj.Object)
	w.WriteHeader(http.StatusOK)
	_, err = io.Copy(w, obj.Body)
	return err
}

func writeHTTPMetadata(h http.Header, o *Object) {
	if o.ContentType != "" {
		h.Set("Content-Type", o.ContentType)
	} else {
		h.Set("Content-Type", MIMEOctetStream)
	}
	h.Set("Content-Length", strconv.FormatInt(o.Size, 10))
	if o.ETag != "" {
		h.Set("ETag", o.ETag)
	}
	if !o.Uploaded.IsZero() {
		h.Set("Last-Modified", o.Uploaded.UTC().Format(http.TimeFormat))
	}
}

// Head returns the file description without its content.
func (fs *FS) Head(ctx context.Context, pathname string) (*File, error) {
	obj, err := fs.bucket.Head(ctx, pathname)
	if err != nil {
		return nil, err
	}
	return fileFromObject(obj), nil
}

// Upload stores body at pathname and returns the stored file.
// The returned Pathname includes the prefix and random suffix when requested.
func (fs *FS) Upload(ctx context.Context, pathname string, body io.Reader, opts ...UploadOption) (*File, error) {
	var o uploadOptions
	for _, opt := range opts {
		opt(&o)
	}

	key := buildPathname(pathname, &o)
	if key == "" {
		return nil, ErrEmptyKey
	}

	ct := o.contentType
	if ct == "" {
		ct = MIMEFromPath(key)
	}
	if ct == "" {
		ct, body = sniffMIME(body)
	}

	obj, err := fs.bucket.Put(ctx, key, body, PutOptions{
		ContentType: ct,
		Metadata:    o.meta,
		Size:        o.size,
	})
	if err != nil {
		return nil, err
	}

	f := fileFromObject(obj)
	if f.UploadedAt.IsZero() {
		f.UploadedAt = time.Now().UTC()
	}
	return f, nil
}

// Download opens the file at pathname. The caller must close the reader.
func (fs *FS) Download(ctx context.Context, pathname string) (io.ReadCloser, *File, error) {
	obj, err := fs.bucket.Get(ctx, pathname)
	if err != nil {
		return nil, nil, err
	}
	return obj.Body, fileFromObject(&obj.Object), nil
}

// Delete removes the given files. Missing files are not an error.
func (fs *FS) Delete(ctx context.Context, pathnames ...string) error {
	if len(pathnames) == 0 {
		return nil
	}
	return fs.bucket.Delete(ctx, pathnames...)
}

func buildPathname(pathname string, o *uploadOptions) string {
	name := strings.TrimLeft(pathname, "/")
	if name == "" {
		return ""
	}

	if o.randomSuffix {
		dir, base := "", name
		if i := strings.LastIndex(name, "/"); i >= 0 {
			dir, base = name[:i+1], name[i+1:]
		}
		ext := ""
		if i := strings.LastIndex(base, "."); i > 0 {
			base, ext = base[:i], base[i:]
		}
		name = dir + base + "-" + randomSuffix() + ext
	}

	if p := strings.Trim(o.prefix, "/"); p != "" {
		name = p + "/" + name
	}
	return name
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
