// Package objectstore mirrors finalized target files to S3-compatible storage.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds the connection settings for the mirror bucket.
type Config struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// Publisher uploads target files with minio-go.
type Publisher struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewPublisher creates a Publisher. Endpoint may be a bare host:port or a URL.
func NewPublisher(cfg Config) (*Publisher, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}

	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Publisher{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.TrimPrefix(cfg.Prefix, "/"),
	}, nil
}

// Publish uploads body under prefix+name and returns the object URI.
func (p *Publisher) Publish(ctx context.Context, name string, body io.Reader, size int64) (string, error) {
	if name == "" {
		return "", errors.New("object name is required")
	}
	key := path.Join(p.prefix, name)

	info, err := p.client.PutObject(ctx, p.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return "", fmt.Errorf("put object %s/%s: %w", p.bucket, key, err)
	}
	return "s3://" + info.Bucket + "/" + info.Key, nil
}
