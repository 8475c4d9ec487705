package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config holds S3-compatible storage configuration.
// Set R2AccountID to target a Cloudflare R2 bucket; Endpoint and Region are derived from it.
type S3Config struct {
	Bucket      string `env:"STORAGE_BUCKET,required" yaml:"bucket"`
	AccessKey   string `env:"STORAGE_ACCESS_KEY" yaml:"access_key"`
	SecretKey   string `env:"STORAGE_SECRET_KEY" yaml:"secret_key"`
	Endpoint    string `env:"STORAGE_ENDPOINT" yaml:"endpoint"`
	Region      string `env:"STORAGE_REGION" envDefault:"us-east-1" yaml:"region"`
	R2AccountID string `env:"STORAGE_R2_ACCOUNT_ID" yaml:"r2_account_id"`
	PathStyle   bool   `env:"STORAGE_PATH_STYLE" yaml:"path_style"`
}

// DefaultRegion is used when S3Config.Region is empty.
const DefaultRegion = "us-east-1"

func (c *S3Config) applyDefaults() {
	if c.R2AccountID != "" {
		if c.Endpoint == "" {
			c.Endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.R2AccountID)
		}
		if c.Region == "" {
			c.Region = "auto"
		}
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

func (c *S3Config) validate() error {
	if c.Bucket == "" {
		return ErrInvalidConfig
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		return ErrInvalidConfig
	}
	return nil
}

// S3Bucket implements Bucket on top of an S3-compatible service.
type S3Bucket struct {
	client *s3.Client
	bucket string
}

// NewS3Bucket creates an S3Bucket. Static credentials are used when AccessKey and
// SecretKey are set; otherwise the default AWS credential chain is loaded.
func NewS3Bucket(ctx context.Context, cfg S3Config) (*S3Bucket, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		}
	})

	return NewS3BucketFromClient(client, cfg.Bucket), nil
}

// NewS3BucketFromClient wraps an existing client.
func NewS3BucketFromClient(client *s3.Client, bucket string) *S3Bucket {
	return &S3Bucket{client: client, bucket: bucket}
}

// Get implements Bucket.
func (b *S3Bucket) Get(ctx context.Context, key string) (*ObjectBody, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrReadFailed)
	}

	return &ObjectBody{
		Body: out.Body,
		Object: Object{
			Key:         key,
			ContentType: aws.ToString(out.ContentType),
			ETag:        aws.ToString(out.ETag),
			Size:        aws.ToInt64(out.ContentLength),
			Uploaded:    aws.ToTime(out.LastModified),
			Metadata:    out.Metadata,
		},
	}, nil
}

// Head implements Bucket.
func (b *S3Bucket) Head(ctx context.Context, key string) (*Object, error) {
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrNotFound)
	}

	return &Object{
		Key:         key,
		ContentType: aws.ToString(out.ContentType),
		ETag:        aws.ToString(out.ETag),
		Size:        aws.ToInt64(out.ContentLength),
		Uploaded:    aws.ToTime(out.LastModified),
		Metadata:    out.Metadata,
	}, nil
}

// Put implements Bucket. Non-seekable bodies are buffered because the SDK
// needs to rewind the payload for signing and retries.
func (b *S3Bucket) Put(ctx context.Context, key string, body io.Reader, opts PutOptions) (*Object, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	rs, size, err := seekable(body, opts.Size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          rs,
		ContentLength: aws.Int64(size),
		Metadata:      opts.Metadata,
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}

	out, err := b.client.PutObject(ctx, input)
	if err != nil {
		return nil, wrapS3Error(err, ErrUploadFailed)
	}

	return &Object{
		Key:         key,
		ContentType: opts.ContentType,
		ETag:        aws.ToString(out.ETag),
		Size:        size,
		Metadata:    cloneMeta(opts.Metadata),
	}, nil
}

// deleteBatchSize is the DeleteObjects per-request cap.
const deleteBatchSize = 1000

// Delete implements Bucket.
func (b *S3Bucket) Delete(ctx context.Context, keys ...string) error {
	switch len(keys) {
	case 0:
		return nil
	case 1:
		_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(keys[0]),
		})
		if err != nil {
			return wrapS3Error(err, ErrDeleteFailed)
		}
		return nil
	}

	for start := 0; start < len(keys); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(keys))
		ids := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
		}

		out, err := b.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(b.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return wrapS3Error(err, ErrDeleteFailed)
		}
		if len(out.Errors) > 0 {
			e := out.Errors[0]
			return fmt.Errorf("%w: %s: %s", ErrDeleteFailed, aws.ToString(e.Key), aws.ToString(e.Message))
		}
	}
	return nil
}

// List implements Bucket. The cursor is the S3 continuation token.
func (b *S3Bucket) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(b.bucket),
		MaxKeys: aws.Int32(int32(listLimit(opts.Limit))),
	}
	if opts.Prefix != "" {
		input.Prefix = aws.String(opts.Prefix)
	}
	if opts.Delimiter != "" {
		input.Delimiter = aws.String(opts.Delimiter)
	}
	if opts.Cursor != "" {
		input.ContinuationToken = aws.String(opts.Cursor)
	}

	out, err := b.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, wrapS3Error(err, ErrListFailed)
	}

	res := &ListResult{
		Objects:   make([]Object, 0, len(out.Contents)),
		Truncated: aws.ToBool(out.IsTruncated),
	}
	for _, o := range out.Contents {
		res.Objects = append(res.Objects, Object{
			Key:      aws.ToString(o.Key),
			ETag:     aws.ToString(o.ETag),
			Size:     aws.ToInt64(o.Size),
			Uploaded: aws.ToTime(o.LastModified),
		})
	}
	for _, p := range out.CommonPrefixes {
		res.Prefixes = append(res.Prefixes, aws.ToString(p.Prefix))
	}
	if res.Truncated {
		res.Cursor = aws.ToString(out.NextContinuationToken)
	}
	return res, nil
}

func seekable(r io.Reader, size int64) (io.ReadSeeker, int64, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		if size > 0 {
			return rs, size, nil
		}
		end, err := rs.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, err
		}
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, 0, err
		}
		return rs, end, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	return bytes.NewReader(data), int64(len(data)), nil
}

var _ Bucket = (*S3Bucket)(nil)
