package storage

import (
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options configures the S3-compatible blob store.
type S3Options struct {
	Bucket   string
	Region   string
	Endpoint string // optional, for S3-compatible providers
	KeyID    string
	Secret   string
}

// S3BlobStore removes blobs from an S3-compatible bucket. Storage refs are
// object keys within the bucket.
type S3BlobStore struct {
	client *s3.Client
	bucket string
}

// NewS3BlobStore creates a blob store over an S3-compatible bucket, using
// path-style addressing so non-AWS providers work too.
func NewS3BlobStore(opts S3Options) *S3BlobStore {
	s3Opts := s3.Options{
		Region: opts.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			opts.KeyID, opts.Secret, "",
		),
		UsePathStyle: true,
	}
	if opts.Endpoint != "" {
		s3Opts.BaseEndpoint = aws.String(fmt.Sprintf("https://%s", opts.Endpoint))
	}

	return &S3BlobStore{
		client: s3.New(s3Opts),
		bucket: opts.Bucket,
	}
}

// DeleteBlob removes the object stored under the given storage ref.
func (s *S3BlobStore) DeleteBlob(ctx context.Context, storageRef string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path.Clean(storageRef)),
	})
	if err != nil {
		return fmt.Errorf("delete blob %q: %w", storageRef, err)
	}
	return nil
}
