package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"logobanner/src/config"
)

// S3API is the subset of the S3 client the uploader calls
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Uploader writes objects to an S3 bucket with a public-read grant
type S3Uploader struct {
	client    S3API
	bucket    string
	grantRead string
}

// NewS3Uploader opens an S3 session with static credentials
func NewS3Uploader(ctx context.Context, cfg config.StorageConfig, creds *config.Credentials) (*S3Uploader, error) {
	if creds == nil {
		return nil, &config.ConfigurationError{Missing: config.RequiredVars}
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(creds.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken,
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return NewS3UploaderWithClient(s3.NewFromConfig(awsCfg), cfg), nil
}

// NewS3UploaderWithClient wraps an existing client
func NewS3UploaderWithClient(client S3API, cfg config.StorageConfig) *S3Uploader {
	return &S3Uploader{
		client:    client,
		bucket:    cfg.Bucket,
		grantRead: cfg.GrantRead,
	}
}

// Upload puts body under key
func (u *S3Uploader) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	}
	if u.grantRead != "" {
		input.GrantRead = aws.String(u.grantRead)
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return &StorageUnavailableError{Op: "put", Key: key, Err: err}
	}
	return nil
}

// Ping checks that the bucket exists and is reachable
func (u *S3Uploader) Ping(ctx context.Context) error {
	if _, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(u.bucket)}); err != nil {
		return &StorageUnavailableError{Op: "head", Key: u.bucket, Err: err}
	}
	return nil
}
