package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cjeanneret/SnapGo/internal/debug"
	"github.com/cjeanneret/SnapGo/internal/logic/frame"
)

// UploadAPI is the part of manager.Uploader used here. Tests substitute a fake.
type UploadAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Uploader uploads PNG data URIs to an S3 bucket.
type S3Uploader struct {
	api    UploadAPI
	bucket string
	newKey func() string
}

// NewS3Uploader builds an AWS client from creds and wraps it in an S3Uploader.
// Empty access keys fall back to the SDK default credential chain.
func NewS3Uploader(ctx context.Context, creds Credentials) (*S3Uploader, error) {
	if creds.BucketName == "" {
		return nil, fmt.Errorf("storage: bucket name is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(creds.Region),
	}
	if creds.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if creds.Endpoint != "" {
			o.BaseEndpoint = aws.String(creds.Endpoint)
		}
		o.UsePathStyle = creds.UsePathStyle
	})

	debug.Value("Bucket", creds.BucketName)
	debug.Value("Region", creds.Region)
	if creds.Endpoint != "" {
		debug.Value("Endpoint", creds.Endpoint)
	}
	return NewUploader(manager.NewUploader(client), creds.BucketName), nil
}

// NewUploader wraps an UploadAPI for the given bucket.
func NewUploader(api UploadAPI, bucket string) *S3Uploader {
	return &S3Uploader{
		api:    api,
		bucket: bucket,
		newKey: NewKey,
	}
}

// Bucket returns the target bucket name.
func (u *S3Uploader) Bucket() string {
	return u.bucket
}

// Upload decodes dataURI and stores the bytes under a fresh <uuid>.png key.
// Failures are logged and returned in the Result; nothing is retried.
func (u *S3Uploader) Upload(ctx context.Context, dataURI string) Result {
	data, err := frame.Decode(dataURI)
	if err != nil {
		uerr := &UploadError{Bucket: u.bucket, Err: err}
		debug.Errorf("Error uploading file to S3: %v", uerr)
		return Result{Err: uerr}
	}

	key := u.newKey()
	debug.Verbose("Uploading %d bytes to s3://%s/%s", len(data), u.bucket, key)
	_, err = u.api.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(ContentTypePNG),
	})
	if err != nil {
		uerr := &UploadError{Bucket: u.bucket, Key: key, Err: err}
		debug.Errorf("Error uploading file to S3: %v", uerr)
		return Result{Err: uerr}
	}

	debug.Upload(u.bucket, key, len(data))
	return Result{Key: key}
}
