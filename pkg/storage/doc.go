// Package storage provides object storage for unstructured data: images,
// documents, media and any other blobs.
//
// A Bucket is the binding: S3Bucket talks to S3 or any compatible service
// (Cloudflare R2, MinIO) and MemoryBucket keeps objects in process. FS wraps a
// Bucket with the file-oriented API handlers use.
//
//	bucket, err := storage.NewS3Bucket(ctx, storage.S3Config{
//		Bucket:      "uploads",
//		R2AccountID: os.Getenv("R2_ACCOUNT_ID"),
//		AccessKey:   os.Getenv("R2_ACCESS_KEY"),
//		SecretKey:   os.Getenv("R2_SECRET_KEY"),
//	})
//	if err != nil {
//		return err
//	}
//	fs := storage.New(bucket)
//
//	file, err := fs.Upload(ctx, "avatar.png", r.Body,
//		storage.WithPrefix("avatars"),
//		storage.WithRandomSuffix(),
//	)
//
// # Serving
//
// Serve writes Content-Type, Content-Length, ETag and Last-Modified from the
// stored object. Missing files produce a 404 with an optional fallback body:
//
//	err := fs.Serve(ctx, w, chi.URLParam(r, "*"), []byte("not found"))
//
// # Multipart uploads
//
// UploadHandler stores the file parts of allowed form fields; HandleMultipart
// drives it over a request without buffering the whole form to disk:
//
//	files, err := storage.HandleMultipart(r, fs.UploadHandler(
//		[]string{"avatar"}, nil,
//		storage.MaxSize(5<<20),
//		storage.ImageOnly(),
//	))
//	var verr *storage.FileValidationError
//	if errors.As(err, &verr) {
//		// 422
//	}
//
// # Listing
//
// List pages through files 1000 at a time, grouped by "/":
//
//	page, err := fs.List(ctx, storage.WithListPrefix("avatars/"))
//	for !page.Done {
//		page, err = fs.List(ctx, storage.WithListPrefix("avatars/"), storage.WithCursor(page.Cursor))
//	}
package storage
