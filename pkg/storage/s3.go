// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/opentelemetry"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config contains configuration for S3-compatible storage.
// Works with AWS S3, MinIO, SeaweedFS S3, and other S3-compatible services.
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// S3Client provides S3-compatible object storage operations.
type S3Client struct {
	s3     *s3.Client
	bucket string
}

var (
	// ErrBucketRequired indicates bucket name is missing.
	ErrBucketRequired = errors.New("bucket name is required")
	// ErrKeyRequired indicates object key is missing.
	ErrKeyRequired = errors.New("object key is required")
	// ErrObjectNotFound indicates the object does not exist.
	ErrObjectNotFound = errors.New("object not found")
	// ErrInvalidTTL indicates a TTL outside the supported <number><unit> format.
	ErrInvalidTTL = errors.New("invalid ttl, expected formats like 30m, 24h, 7d, 2w, 1M or 1y")
)

// ttlFormat accepts the lifecycle units understood by the bucket expiration rules.
var ttlFormat = regexp.MustCompile(`^[1-9][0-9]*[mhdwMy]$`)

// TTLTagKey is the object tag a bucket lifecycle rule filters on to expire report files.
const TTLTagKey = "reporter-ttl"

// NewS3Client creates a new S3 client with the given configuration.
func NewS3Client(ctx context.Context, cfg S3Config) (*S3Client, error) {
	if cfg.Bucket == "" {
		return nil, ErrBucketRequired
	}

	var opts []func(*config.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}

		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Client{
		s3:     s3Client,
		bucket: cfg.Bucket,
	}, nil
}

// Upload stores content from a reader at the given key.
func (client *S3Client) Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error) {
	return client.UploadWithTTL(ctx, key, reader, contentType, "")
}

// UploadWithTTL stores content and tags it with ttl so the bucket lifecycle rule can expire it.
func (client *S3Client) UploadWithTTL(ctx context.Context, key string, reader io.Reader, contentType string, ttl string) (string, error) {
	logger, tracer, _ := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.storage.upload")
	defer span.End()

	if key == "" {
		return "", ErrKeyRequired
	}

	if ttl != "" && !ttlFormat.MatchString(ttl) {
		return "", ErrInvalidTTL
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("reading data: %w", err)
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(client.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}

	if ttl != "" {
		input.Tagging = aws.String(url.Values{TTLTagKey: []string{ttl}}.Encode())
	}

	if _, err := client.s3.PutObject(ctx, input); err != nil {
		opentelemetry.HandleSpanError(&span, "failed to upload object", err)
		logger.Errorf("failed to upload object %s: %v", key, err)

		return "", fmt.Errorf("uploading object: %w", err)
	}

	logger.Infof("uploaded object %s to bucket %s (%d bytes)", key, client.bucket, len(data))

	return key, nil
}

// Download retrieves content from the given key.
func (client *S3Client) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	logger, tracer, _ := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.storage.download")
	defer span.End()

	if key == "" {
		return nil, ErrKeyRequired
	}

	result, err := client.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(client.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrObjectNotFound
		}

		opentelemetry.HandleSpanError(&span, "failed to download object", err)
		logger.Errorf("failed to download object %s: %v", key, err)

		return nil, fmt.Errorf("downloading object: %w", err)
	}

	return result.Body, nil
}

// Delete removes an object by key.
func (client *S3Client) Delete(ctx context.Context, key string) error {
	logger, tracer, _ := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.storage.delete")
	defer span.End()

	if key == "" {
		return ErrKeyRequired
	}

	if _, err := client.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(client.bucket),
		Key:    aws.String(key),
	}); err != nil {
		opentelemetry.HandleSpanError(&span, "failed to delete object", err)
		logger.Errorf("failed to delete object %s: %v", key, err)

		return fmt.Errorf("deleting object: %w", err)
	}

	logger.Infof("deleted object %s from bucket %s", key, client.bucket)

	return nil
}

// Exists checks if an object exists at the given key.
func (client *S3Client) Exists(ctx context.Context, key string) (bool, error) {
	logger, tracer, _ := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.storage.exists")
	defer span.End()

	if key == "" {
		return false, ErrKeyRequired
	}

	if _, err := client.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(client.bucket),
		Key:    aws.String(key),
	}); err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return false, nil
		}

		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}

		opentelemetry.HandleSpanError(&span, "failed to check object existence", err)
		logger.Errorf("failed to check existence of %s: %v", key, err)

		return false, fmt.Errorf("checking object existence: %w", err)
	}

	return true, nil
}

// Ping checks that the bucket exists and is reachable with the configured credentials.
func (client *S3Client) Ping(ctx context.Context) error {
	if _, err := client.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(client.bucket)}); err != nil {
		return fmt.Errorf("checking bucket %s: %w", client.bucket, err)
	}

	return nil
}

// Compile-time interface check.
var _ ObjectStorage = (*S3Client)(nil)
