// Package s3store keeps export artifacts in an S3 bucket.
package s3store

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"parceltrack/internal/pkg/errs"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the part of *s3.Client the store needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type ArtifactStore struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewArtifactStore loads the default AWS credential chain for region.
func NewArtifactStore(ctx context.Context, region, bucket, prefix string) (*ArtifactStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return NewArtifactStoreWithClient(s3.NewFromConfig(cfg), bucket, prefix)
}

func NewArtifactStoreWithClient(client PutObjectAPI, bucket, prefix string) (*ArtifactStore, error) {
	if client == nil {
		return nil, errs.NewValueIsRequiredError("client")
	}
	if bucket == "" {
		return nil, errs.NewValueIsRequiredError("bucket")
	}
	return &ArtifactStore{client: client, bucket: bucket, prefix: prefix}, nil
}

// Put uploads body and returns its s3:// location.
func (s *ArtifactStore) Put(ctx context.Context, key string, contentType string, body []byte) (string, error) {
	if key == "" {
		return "", errs.NewValueIsRequiredError("key")
	}
	objectKey := path.Join(s.prefix, key)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("unable to upload %s to S3: %w", objectKey, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, objectKey), nil
}
