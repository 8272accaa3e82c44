package objectstore

import (
	"bytes"
	"context"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client is the subset of the S3 API this package depends on, narrowed
// for testability following gurre-ddb-pitr's aws.S3Client interface split.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store writes keys as objects under a bucket and optional prefix parsed
// from an "s3://bucket/prefix" output root (spec §4.2).
type S3Store struct {
	client S3Client
	bucket string
	prefix string
	uri    string
}

// NewS3 parses outputRoot and constructs an S3Store using the default AWS
// config resolution chain (env vars, shared config, IAM role).
func NewS3(ctx context.Context, outputRoot string) (*S3Store, error) {
	bucket, prefix := parseS3URI(outputRoot)

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	return &S3Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
		uri:    outputRoot,
	}, nil
}

func parseS3URI(uri string) (bucket, prefix string) {
	trimmed := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	bucket = parts[0]
	if len(parts) == 2 {
		prefix = strings.Trim(parts[1], "/")
	}
	return bucket, prefix
}

func (s *S3Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	objKey := s.objectKey(key)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &objKey,
		Body:        bytes.NewReader(body),
		ContentType: &contentType,
	})
	if err != nil {
		return &StorageError{Key: key, Err: err}
	}
	return nil
}

func (s *S3Store) BaseURI() string { return s.uri }
