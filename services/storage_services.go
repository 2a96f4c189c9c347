package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"codewhisperer/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrStorageDisabled = errors.New("object storage is not configured")

// ImageStore persists question illustrations and returns their public URL
type ImageStore interface {
	PutImage(ctx context.Context, questionCode, filename, contentType string, size int64, body io.Reader) (string, error)
}

type MinioImageStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewImageStore connects to the bucket, creating it when missing.
// It returns a nil store when storage is not configured.
func NewImageStore(ctx context.Context, cfg config.StorageConfig) (ImageStore, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint
	}
	return &MinioImageStore{client: client, bucket: cfg.Bucket, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (s *MinioImageStore) PutImage(ctx context.Context, questionCode, filename, contentType string, size int64, body io.Reader) (string, error) {
	key := ImageObjectKey(questionCode, filename)
	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return s.publicURL + "/" + s.bucket + "/" + key, nil
}

// ImageObjectKey namespaces uploads per question and keeps the original extension
func ImageObjectKey(questionCode, filename string) string {
	return "questions/" + questionCode + "/" + uuid.NewString() + strings.ToLower(path.Ext(filename))
}
