// Package minio stores job attachments in an S3 compatible bucket.
package minio

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/core"
)

// Config describes the bucket attachments are written to.
type Config struct {
	Endpoint  string // host[:port], no scheme
	AccessKey string
	SecretKey string
	Bucket    string
	UseTLS    bool
	// PublicURL is the base participants fetch objects from. Defaults to the endpoint.
	PublicURL string
}

// Store implements core.BlobStore on MinIO.
type Store struct {
	client  *minio.Client
	bucket  string
	baseURL *url.URL
}

var _ core.BlobStore = (*Store)(nil)

// New creates a Store and its MinIO client.
func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("blob endpoint is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("blob bucket is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	base, err := publicBase(cfg)
	if err != nil {
		return nil, err
	}
	return &Store{client: client, bucket: cfg.Bucket, baseURL: base}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("make bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Put uploads the object and returns its URL.
func (s *Store) Put(ctx context.Context, params core.PutBlobParams) (string, error) {
	if s == nil || s.client == nil {
		return "", errors.New("minio client not initialized")
	}
	contentType := params.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := s.client.PutObject(ctx, s.bucket, params.Key, params.Body, params.Size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("put object %s: %w", params.Key, err)
	}
	return ObjectURL(s.baseURL, s.bucket, params.Key), nil
}

// ObjectURL joins base, bucket, and key into a path-style object URL.
func ObjectURL(base *url.URL, bucket, key string) string {
	u := *base
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + bucket + "/" + strings.TrimPrefix(key, "/")
	return u.String()
}

func publicBase(cfg Config) (*url.URL, error) {
	raw := strings.TrimSpace(cfg.PublicURL)
	if raw == "" {
		scheme := "http"
		if cfg.UseTLS {
			scheme = "https"
		}
		raw = scheme + "://" + cfg.Endpoint
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid blob public url %q", raw)
	}
	return u, nil
}
