package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config points the store at a bucket. Endpoint switches to path-style
// addressing for S3-compatible servers.
type S3Config struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

type S3Store struct {
	client *s3.Client
	bucket string
	now    func() time.Time
}

func NewS3(ctx context.Context, c S3Config) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(c.Region),
	}
	if c.AccessKey != "" {
		creds := credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")
		opts = append(opts, awsconfig.WithCredentialsProvider(creds))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client: client,
		bucket: c.Bucket,
		now:    time.Now,
	}, nil
}

func (s *S3Store) UploadIcon(ctx context.Context, icon Icon, owner IconOwner) (string, error) {
	key, err := IconPath(owner, icon.ContentType, s.now())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIconCreate, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(icon.Body),
		ContentType: aws.String(icon.ContentType),
	})
	if err != nil {
		slog.Error("icon upload failed", "key", key, "error", err)
		return "", fmt.Errorf("%w: %w", ErrIconCreate, err)
	}
	return key, nil
}

func (s *S3Store) GetIcon(ctx context.Context, key string) (*Icon, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		slog.Error("icon download failed", "key", key, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrIconGet, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIconGet, err)
	}

	contentType := aws.ToString(out.ContentType)
	if _, err := imageSubtype(contentType); err != nil {
		contentType = contentTypeFromKey(key)
	}
	return &Icon{Body: body, ContentType: contentType}, nil
}
