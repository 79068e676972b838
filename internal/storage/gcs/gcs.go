// Package gcs implements the Google Cloud Storage backend. Downloads and
// client-direct uploads use V4 signed URLs minted via the GCS signing API;
// artifact bytes never pass through the API. Supports Application Default
// Credentials and service account JSON key files.
package gcs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	gstorage "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/module-registry/module-registry/internal/config"
	"github.com/module-registry/module-registry/internal/storage"
)

func init() {
	storage.Register("gcs", func(cfg *config.Config) (storage.Backend, error) {
		return New(&cfg.Storage.GCS)
	})
}

// Backend implements storage.Backend on Google Cloud Storage.
type Backend struct {
	client *gstorage.Client
	bucket string
}

// New creates a GCS backend. With no credentials file configured the client
// uses Application Default Credentials (GOOGLE_APPLICATION_CREDENTIALS, the
// GCE/GKE metadata service, or gcloud auth application-default login).
func New(cfg *config.GCSStorageConfig) (*Backend, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket name is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := gstorage.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &Backend{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// Close closes the underlying client.
func (b *Backend) Close() error {
	return b.client.Close()
}

// Upload stores an object and records its SHA256 in object metadata.
func (b *Backend) Upload(ctx context.Context, path string, reader io.Reader, size int64) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	hasher := sha256.New()
	hasher.Write(data)
	checksum := hex.EncodeToString(hasher.Sum(nil))

	writer := b.client.Bucket(b.bucket).Object(path).NewWriter(ctx)
	writer.Metadata = map[string]string{
		"sha256": checksum,
	}

	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close GCS writer: %w", err)
	}

	return &storage.UploadResult{
		Path:     path,
		Size:     int64(len(data)),
		Checksum: checksum,
	}, nil
}

// Download retrieves an object.
func (b *Backend) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	reader, err := b.client.Bucket(b.bucket).Object(path).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read from GCS: %w", err)
	}

	return reader, nil
}

// Delete removes an object. A missing object is not an error.
func (b *Backend) Delete(ctx context.Context, path string) error {
	if err := b.client.Bucket(b.bucket).Object(path).Delete(ctx); err != nil {
		if errors.Is(err, gstorage.ErrObjectNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete from GCS: %w", err)
	}

	return nil
}

// Exists checks object presence via an attrs fetch.
func (b *Backend) Exists(ctx context.Context, path string) (bool, error) {
	_, err := b.client.Bucket(b.bucket).Object(path).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gstorage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}

	return true, nil
}

// PresignDownload returns a V4 signed GET URL. Signing requires the service
// account to hold iam.serviceAccountTokenCreator or signBlob permission.
func (b *Backend) PresignDownload(ctx context.Context, path string, ttl time.Duration) (string, error) {
	url, err := b.client.Bucket(b.bucket).SignedURL(path, &gstorage.SignedURLOptions{
		Scheme:  gstorage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}

	return url, nil
}

// PresignUpload returns a V4 signed PUT URL.
func (b *Backend) PresignUpload(ctx context.Context, path string, ttl time.Duration) (string, error) {
	url, err := b.client.Bucket(b.bucket).SignedURL(path, &gstorage.SignedURLOptions{
		Scheme:  gstorage.SigningSchemeV4,
		Method:  "PUT",
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate signed upload URL: %w", err)
	}

	return url, nil
}
