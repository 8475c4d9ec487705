package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"slices"
)

// PartHandler stores one multipart part. It returns a nil File for parts it skips.
type PartHandler func(ctx context.Context, part *multipart.Part) (*File, error)

// UploadHandler returns a PartHandler that stores file parts whose form field is
// in allowedFields. The stored pathname is the client file name, or getKey(name)
// when getKey is not nil. Each part is read into memory before it is validated,
// bounded by MaxSize when that rule is present.
func (fs *FS) UploadHandler(allowedFields []string, getKey func(filename string) string, rules ...ValidationRule) PartHandler {
	limit, bounded := maxSizeOf(rules)

	return func(ctx context.Context, part *multipart.Part) (*File, error) {
		field := part.FormName()
		filename := part.FileName()
		if field == "" || filename == "" || !slices.Contains(allowedFields, field) {
			return nil, nil
		}

		var src io.Reader = part
		if bounded {
			src = io.LimitReader(part, limit+1)
		}
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}

		size := int64(len(data))
		if bounded && size > limit {
			// Report at least limit+1; the rest of the part is never read.
			return nil, MaxSize(limit).Validate(field, size, "")
		}

		ct := part.Header.Get("Content-Type")
		if ct == "" || normalizeMIME(ct) == MIMEOctetStream {
			ct = http.DetectContentType(data)
		}
		if err := ValidateFile(field, size, ct, rules...); err != nil {
			return nil, err
		}

		key := filename
		if getKey != nil {
			key = getKey(filename)
		}
		return fs.Upload(ctx, key, bytes.NewReader(data),
			WithContentType(ct),
			WithContentLength(size),
		)
	}
}

// HandleMultipart streams the parts of a multipart request through handler and
// returns the stored files. It stops at the first handler error.
func HandleMultipart(r *http.Request, handler PartHandler) ([]File, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, errors.Join(ErrNotMultipart, err)
	}

	var files []File
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return files, nil
		}
		if err != nil {
			return files, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}

		f, err := handler(r.Context(), part)
		_ = part.Close()
		if err != nil {
			return files, err
		}
		if f != nil {
			files = append(files, *f)
		}
	}
}
