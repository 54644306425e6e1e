package policy

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-logr/logr"
)

// maxDocumentSize bounds how much of the S3 object is read.
const maxDocumentSize = 4 << 20

// GetObjectAPI is the subset of the S3 client used by S3Source.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source downloads the policy document from an S3 object on every fetch.
type S3Source struct {
	Client GetObjectAPI
	Bucket string
	Key    string
	Log    logr.Logger
}

// NewS3Source returns an S3Source. The client is built by the caller once at
// startup and shared across requests.
func NewS3Source(client GetObjectAPI, bucket, key string, log logr.Logger) (*S3Source, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 policy source: missing bucket")
	}
	if key == "" {
		return nil, fmt.Errorf("s3 policy source: missing key")
	}
	return &S3Source{Client: client, Bucket: bucket, Key: key, Log: log}, nil
}

// FetchPolicy downloads and parses s3://Bucket/Key.
func (s *S3Source) FetchPolicy(ctx context.Context) (*Document, error) {
	s.Log.V(1).Info("downloading policy document", "bucket", s.Bucket, "key", s.Key)

	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3: get s3://%s/%s: %w", s.Bucket, s.Key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("s3: read s3://%s/%s: %w", s.Bucket, s.Key, err)
	}
	if len(data) > maxDocumentSize {
		return nil, fmt.Errorf("s3: policy document s3://%s/%s exceeds %d bytes", s.Bucket, s.Key, maxDocumentSize)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("s3://%s/%s: %w", s.Bucket, s.Key, err)
	}
	s.Log.V(1).Info("decoded policy document", "records", doc.Len())
	return doc, nil
}
