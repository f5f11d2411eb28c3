package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/labportal/server/internal/infra/config"
	"github.com/labportal/server/internal/port/outbound"
	apperrors "github.com/labportal/server/internal/utils/errors"
)

// FileStore keeps submission deliverables in an S3-compatible bucket. File
// references are object keys.
type FileStore struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
}

var _ outbound.FileStorePort = (*FileStore)(nil)

// NewClient builds an S3 client for cfg. Static credentials are used when
// configured; otherwise the default AWS credential chain applies.
func NewClient(ctx context.Context, cfg config.StorageConfig) (*s3.Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// NewFileStore creates a file store over client.
func NewFileStore(client *s3.Client, bucket string) *FileStore {
	return &FileStore{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
	}
}

// Put uploads an object under key and returns the key as its reference.
func (s *FileStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	key = strings.TrimLeft(key, "/")
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          reader,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", apperrors.Transient("file storage unavailable", fmt.Errorf("put object: %w", err))
	}
	return key, nil
}

// GetPresignedURL generates a temporary download URL for ref.
func (s *FileStore) GetPresignedURL(ctx context.Context, ref string, duration time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = duration
	})
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}
