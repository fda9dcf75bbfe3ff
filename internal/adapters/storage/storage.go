// Package storage wraps S3-compatible object storage for export archives.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/sanjaykhatri/lead-management-backend/platform/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignedURLTTL is how long generated download links stay valid.
const PresignedURLTTL = 15 * time.Minute

// PresignedURL is a time-limited download link for a stored object.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service is a thin MinIO wrapper scoped to one bucket.
type Service struct {
	client *minio.Client
	bucket string
}

// New connects to MinIO. Returns nil service (no error) when storage is not
// configured; callers fall back to inline-only behavior.
func New(cfg config.StorageConfig) (*Service, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, nil
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Service{client: client, bucket: cfg.GetMinioBucketLeadExports()}, nil
}

// Enabled reports whether a storage backend is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.client != nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (s *Service) EnsureBucket(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Upload stores an object and returns its key.
func (s *Service) Upload(ctx context.Context, fileKey, contentType string, reader io.Reader, size int64) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("object storage is not configured")
	}
	_, err := s.client.PutObject(ctx, s.bucket, fileKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", fileKey, err)
	}
	return fileKey, nil
}

// PresignedDownloadURL creates a time-limited download link.
func (s *Service) PresignedDownloadURL(ctx context.Context, fileKey string) (*PresignedURL, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("object storage is not configured")
	}
	expiresAt := time.Now().Add(PresignedURLTTL)
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, fileKey, PresignedURLTTL, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", fileKey, err)
	}
	return &PresignedURL{URL: presigned.String(), FileKey: fileKey, ExpiresAt: expiresAt}, nil
}

// PruneOlderThan removes objects last modified before the cutoff.
func (s *Service) PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	if !s.Enabled() {
		return 0, nil
	}

	pruned := 0
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if object.Err != nil {
			return pruned, object.Err
		}
		if !object.LastModified.Before(cutoff) {
			continue
		}
		if err := s.client.RemoveObject(ctx, s.bucket, object.Key, minio.RemoveObjectOptions{}); err != nil {
			return pruned, fmt.Errorf("remove %s: %w", object.Key, err)
		}
		pruned++
	}
	return pruned, nil
}
