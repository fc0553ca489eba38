// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package storage provides object storage for user-submitted documents.

It wraps the AWS SDK v2 S3 client behind a small uploader type so that the
domain layer depends on a single Upload call rather than on SDK types.

Core Responsibilities:

  - Durability: KYC documents are persisted outside the database.
  - Addressing: Deterministic keys per user and document field.
  - Compatibility: Works against AWS S3 and S3-compatible endpoints (MinIO).
*/
package storage

import (
	stdctx "context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// pingTimeout bounds the readiness-probe HeadBucket call.
const pingTimeout = 2 * time.Second

// Config holds the settings needed to reach the object store.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Uploader stores document blobs in an S3 bucket.
type Uploader struct {
	client *s3.Client
	bucket string
}

// NewUploader builds an S3-backed uploader.
//
// Static credentials are used when provided (MinIO, explicit AWS keys);
// otherwise the default AWS credential chain applies (IAM role, env vars).
func NewUploader(ctx stdctx.Context, cfg Config) (*Uploader, error) {
	var awsCfg aws.Config
	var err error

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
		)
	}

	if err != nil {
		return nil, fmt.Errorf("storage: failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(options *s3.Options) {
		if cfg.Endpoint != "" {
			options.BaseEndpoint = aws.String(cfg.Endpoint)
			options.UsePathStyle = true
		}
	})

	return &Uploader{client: client, bucket: cfg.Bucket}, nil
}

/*
Upload stores the content under key and returns its canonical URL.

Parameters:
  - context: context.Context
  - key: string (object key, e.g. "shoppers/<id>/legal_id_front.jpg")
  - content: io.Reader
  - contentType: string (MIME type)

Returns:
  - string: Object URL
  - error: Upload failures
*/
func (uploader *Uploader) Upload(context stdctx.Context, key string, content io.Reader, contentType string) (string, error) {
	_, err := uploader.client.PutObject(context, &s3.PutObjectInput{
		Bucket:      aws.String(uploader.bucket),
		Key:         aws.String(key),
		Body:        content,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("storage_upload_failed: %w", err)
	}

	return fmt.Sprintf("s3://%s/%s", uploader.bucket, key), nil
}

// Ping verifies the bucket is reachable, for readiness probes.
func (uploader *Uploader) Ping(context stdctx.Context) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	_, err := uploader.client.HeadBucket(pingCtx, &s3.HeadBucketInput{
		Bucket: aws.String(uploader.bucket),
	})
	if err != nil {
		return fmt.Errorf("storage: ping failed: %w", err)
	}

	return nil
}
