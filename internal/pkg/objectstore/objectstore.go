// Package objectstore reads objects from an S3-compatible bucket.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appcfg "github.com/presenton/core/internal/config"
)

var ErrIncompleteConfig = errors.New("incomplete s3 config: region/access_key_id/secret_access_key are required")

// Store opens objects by bucket and key.
type Store struct {
	client        *s3.Client
	defaultBucket string
}

func New(opts appcfg.S3Options) (*Store, error) {
	region := strings.TrimSpace(opts.Region)
	accessKey := strings.TrimSpace(opts.AccessKeyID)
	secretKey := strings.TrimSpace(opts.SecretAccessKey)
	if region == "" || accessKey == "" || secretKey == "" {
		return nil, ErrIncompleteConfig
	}

	s3Opts := s3.Options{
		Region:       region,
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: opts.PathStyleAccess,
	}
	if endpoint := strings.TrimSpace(opts.Endpoint); endpoint != "" {
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		endpoint = strings.TrimSuffix(endpoint, "/")
		parsed, err := url.Parse(endpoint)
		if err != nil || parsed.Host == "" {
			return nil, fmt.Errorf("invalid s3 endpoint: %s", endpoint)
		}
		s3Opts.BaseEndpoint = aws.String(endpoint)
		// custom endpoints (minio, r2) rarely support virtual-host buckets
		s3Opts.UsePathStyle = true
	}

	return &Store{
		client:        s3.New(s3Opts),
		defaultBucket: strings.TrimSpace(opts.Bucket),
	}, nil
}

// Open streams an object body. An empty bucket falls back to the configured one.
func (s *Store) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if bucket == "" {
		bucket = s.defaultBucket
	}
	key = NormalizeKey(key)
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("invalid s3 object reference %q/%q", bucket, key)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

// ParseRef splits an s3://bucket/key reference.
func ParseRef(ref string) (bucket, key string, err error) {
	parsed, err := url.Parse(ref)
	if err != nil || parsed.Scheme != "s3" {
		return "", "", fmt.Errorf("not an s3 reference: %q", ref)
	}
	key = NormalizeKey(parsed.Path)
	if key == "" {
		return "", "", fmt.Errorf("s3 reference %q has no object key", ref)
	}
	return parsed.Host, key, nil
}

func NormalizeKey(key string) string {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	key = strings.TrimPrefix(key, "/")
	for strings.Contains(key, "//") {
		key = strings.ReplaceAll(key, "//", "/")
	}
	return key
}
