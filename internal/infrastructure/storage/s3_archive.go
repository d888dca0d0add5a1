package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"go.uber.org/zap"

	"github.com/garyjia/clinic-invoice/internal/application/port"
)

// S3Config holds configuration for an S3-compatible bucket
type S3Config struct {
	// Endpoint is the S3 API root, e.g. https://<ref>.supabase.co/storage/v1/s3
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	AccessKeySecret string
	// PublicBaseURL, when set, is joined with the key to form the returned location
	PublicBaseURL string
}

// S3Archive implements port.DocumentArchive on an S3-compatible bucket
type S3Archive struct {
	client *s3.S3
	cfg    S3Config
	logger *zap.Logger
}

// NewS3Archive creates a new S3 archive
func NewS3Archive(cfg S3Config, logger *zap.Logger) (*S3Archive, error) {
	if cfg.Endpoint == "" || cfg.AccessKeyID == "" || cfg.AccessKeySecret == "" {
		return nil, fmt.Errorf("S3 configuration is incomplete")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is not configured")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(cfg.Region),
		Endpoint:         aws.String(cfg.Endpoint),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.AccessKeySecret, ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}

	return &S3Archive{
		client: s3.New(sess),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Save uploads content under key and returns its public URL or s3:// location
func (a *S3Archive) Save(ctx context.Context, key string, content []byte, contentType string) (string, error) {
	_, err := a.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(content),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(content))),
	})
	if err != nil {
		a.logger.Error("Failed to upload document",
			zap.String("bucket", a.cfg.Bucket),
			zap.String("key", key),
			zap.Error(err))
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	a.logger.Debug("Document archived",
		zap.String("bucket", a.cfg.Bucket),
		zap.String("key", key),
		zap.Int("size", len(content)))

	if a.cfg.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(a.cfg.PublicBaseURL, "/"), a.cfg.Bucket, key), nil
	}
	return fmt.Sprintf("s3://%s/%s", a.cfg.Bucket, key), nil
}

// Verify interface compliance
var _ port.DocumentArchive = (*S3Archive)(nil)
