package storage_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/edgekit/pkg/storage"
)

func TestFS_Upload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("infers content type from extension", func(t *testing.T) {
		t.Parallel()

		fs := storage.New(storage.NewMemoryBucket())
		f, err := fs.Upload(ctx, "notes.txt", strings.NewReader("hello"))
		require.NoError(t, err)
		require.Equal(t, "notes.txt", f.Pathname)
		require.Equal(t, "text/plain", f.ContentType)
		require.Equal(t, int64(5), f.Size)
		require.False(t, f.UploadedAt.IsZero())
	})

	t.Run("sniffs content type without extension", func(t *testing.T) {
		t.Parallel()

		fs := storage.New(storage.NewMemoryBucket())
		f, err := fs.Upload(ctx, "page", strings.NewReader("<html><body>hi</body></html>"))
		require.NoError(t, err)
		require.Equal(t, "text/html; charset=utf-8", f.ContentType)

		body, _, err := fs.Download(ctx, "page")
		require.NoError(t, err)
		defer body.Close()
		data, err := io.ReadAll(body)
		require.NoError(t, err)
		require.Equal(t, "<html><body>hi</body></html>", string(data))
	})

	t.Run("explicit content type and meta", func(t *testing.T) {
		t.Parallel()

		fs := storage.New(storage.NewMemoryBucket())
		f, err := fs.Upload(ctx, "data.bin", strings.NewReader("{}"),
			storage.WithContentType("application/json"),
			storage.WithMeta(map[string]string{"owner": "u1"}),
		)
		require.NoError(t, err)
		require.Equal(t, "application/json", f.ContentType)

		head, err := fs.Head(ctx, "data.bin")
		require.NoError(t, err)
		require.Equal(t, "u1", head.Meta["owner"])
	})

	t.Run("prefix and random suffix", func(t *testing.T) {
		t.Parallel()

		fs := storage.New(storage.NewMemoryBucket())
		f, err := fs.Upload(ctx, "photo.png", strings.NewReader("png"),
			storage.WithPrefix("/avatars/"),
			storage.WithRandomSuffix(),
		)
		require.NoError(t, err)
		require.Regexp(t, `^avatars/photo-[0-9a-f]{12}\.png$`, f.Pathname)
		require.Equal(t, "image/png", f.ContentType)

		g, err := fs.Upload(ctx, "photo.png", strings.NewReader("png"), storage.WithRandomSuffix())
		require.NoError(t, err)
		require.NotEqual(t, f.Pathname, g.Pathname)
	})

	t.Run("empty pathname", func(t *testing.T) {
		t.Parallel()

		fs := storage.New(storage.NewMemoryBucket())
		_, err := fs.Upload(ctx, "/", strings.NewReader("x"))
		require.ErrorIs(t, err, storage.ErrEmptyKey)
	})
}

func TestFS_Serve(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("writes body and metadata", func(t *testing.T) {
		t.Parallel()

		fs := storage.New(storage.NewMemoryBucket())
		_, err := fs.Upload(ctx, "hello.txt", strings.NewReader("hello world"))
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		require.NoError(t, fs.Serve(ctx, rec, "hello.txt", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "hello world", rec.Body.String())
		require.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
		require.Equal(t, "11", rec.Header().Get("Content-Length"))
		require.NotEmpty(t, rec.Header().Get("ETag"))
		require.NotEmpty(t, rec.Header().Get("Last-Modified"))
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		fs := storage.New(storage.NewMemoryBucket())
		rec := httptest.NewRecorder()
		require.NoError(t, fs.Serve(ctx, rec, "missing", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Empty(t, rec.Body.String())
	})

	t.Run("not found with fallback", func(t *testing.T) {
		t.Parallel()

		fs := storage.New(storage.NewMemoryBucket())
		rec := httptest.NewRecorder()
		require.NoError(t, fs.Serve(ctx, rec, "missing", []byte("fallback")))
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "fallback", rec.Body.String())
	})
}

func TestFS_List(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	newFS := func(t *testing.T) *storage.FS {
		t.Helper()
		return storage.New(seedBucket(t, "test:1", "2", "dir/3"))
	}

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		page, err := newFS(t).List(ctx)
		require.NoError(t, err)
		require.True(t, page.Done)
		require.Empty(t, page.Cursor)
		require.Len(t, page.Files, 2)
		require.Equal(t, "2", page.Files[0].Pathname)
		require.Equal(t, "test:1", page.Files[1].Pathname)
		require.Equal(t, []string{"dir/"}, page.Prefixes)
	})

	t.Run("prefix", func(t *testing.T) {
		t.Parallel()

		page, err := newFS(t).List(ctx, storage.WithListPrefix("test"))
		require.NoError(t, err)
		require.Len(t, page.Files, 1)
		require.Equal(t, "test:1", page.Files[0].Pathname)
	})

	t.Run("limit and cursor", func(t *testing.T) {
		t.Parallel()

		fs := newFS(t)
		first, err := fs.List(ctx, storage.WithListLimit(1), storage.WithDelimiter(""))
		require.NoError(t, err)
		require.False(t, first.Done)
		require.NotEmpty(t, first.Cursor)
		require.Len(t, first.Files, 1)

		var names []string
		names = append(names, first.Files[0].Pathname)
		page := first
		for !page.Done {
			page, err = fs.List(ctx, storage.WithListLimit(1), storage.WithDelimiter(""), storage.WithCursor(page.Cursor))
			require.NoError(t, err)
			for _, f := range page.Files {
				names = append(names, f.Pathname)
			}
		}
		require.Equal(t, []string{"2", "dir/3", "test:1"}, names)
	})
}

func TestFS_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fs := storage.New(seedBucket(t, "a", "b", "c"))

	require.NoError(t, fs.Delete(ctx))
	require.NoError(t, fs.Delete(ctx, "a", "b"))

	_, err := fs.Head(ctx, "a")
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, _, err = fs.Download(ctx, "b")
	require.ErrorIs(t, err, storage.ErrNotFound)

	f, err := fs.Head(ctx, "c")
	require.NoError(t, err)
	require.Equal(t, "c", f.Pathname)
}
