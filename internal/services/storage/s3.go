package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/phambaophuc/imgres/internal/config"
	"github.com/phambaophuc/imgres/internal/models"
	"github.com/phambaophuc/imgres/pkg/utils"
	"go.uber.org/zap"
)

const s3OperationTimeout = 10 * time.Second

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Uploader stages images in an S3-compatible bucket such as Cloudflare R2.
type S3Uploader struct {
	client     s3API
	bucket     string
	keyPrefix  string
	publicBase string
	logger     *zap.Logger
}

func NewS3Uploader(ctx context.Context, cfg config.S3Config, keyPrefix string, logger *zap.Logger) (*S3Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Uploader(client, cfg, keyPrefix, logger), nil
}

func newS3Uploader(client s3API, cfg config.S3Config, keyPrefix string, logger *zap.Logger) *S3Uploader {
	publicBase := "https://" + strings.TrimSuffix(cfg.PublicHost, "/")
	if cfg.PublicHost == "" {
		publicBase = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}

	return &S3Uploader{
		client:     client,
		bucket:     cfg.Bucket,
		keyPrefix:  keyPrefix,
		publicBase: publicBase,
		logger:     logger,
	}
}

func (s *S3Uploader) Upload(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	key := utils.StagingKey(s.keyPrefix, filename)

	ctx, cancel := context.WithTimeout(ctx, s3OperationTimeout)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		s.logger.Error("Failed to stage image",
			zap.String("bucket", s.bucket),
			zap.String("key", key),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: failed to upload to s3: %v", models.ErrStorage, err)
	}

	return s.publicBase + "/" + key, nil
}

func (s *S3Uploader) headBucket(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s3OperationTimeout)
	defer cancel()

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}
