// Package storage uploads captured PNG images to an object storage bucket.
package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ContentTypePNG is the content type set on every uploaded object.
const ContentTypePNG = "image/png"

// Credentials is the configuration injected into an uploader at construction.
// Region, Endpoint and UsePathStyle are optional; they let the uploader talk
// to S3-compatible services.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	Endpoint        string
	UsePathStyle    bool
}

// Uploader persists an encoded image and reports the object key.
type Uploader interface {
	Upload(ctx context.Context, dataURI string) Result
}

// Result is the outcome of one upload: a key on success, an error otherwise.
type Result struct {
	Key string
	Err error
}

// OK reports whether the upload succeeded.
func (r Result) OK() bool {
	return r.Err == nil && r.Key != ""
}

// UploadError describes a failed upload. Key is empty when the failure
// happened before a key was generated.
type UploadError struct {
	Bucket string
	Key    string
	Err    error
}

func (e *UploadError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("upload to bucket %q: %v", e.Bucket, e.Err)
	}
	return fmt.Sprintf("upload %q to bucket %q: %v", e.Key, e.Bucket, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// NewKey returns a random object key of the form <uuid-v4>.png.
func NewKey() string {
	return uuid.NewString() + ".png"
}
