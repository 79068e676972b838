// Package local implements the local filesystem storage backend, intended
// for development and single-node deployments. It cannot mint presigned
// upload URLs; callers fall back to proxying uploads through the API.
// Download URLs point at the API's file-serving route.
package local

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/module-registry/module-registry/internal/config"
	"github.com/module-registry/module-registry/internal/storage"
)

func init() {
	storage.Register("local", func(cfg *config.Config) (storage.Backend, error) {
		return New(&cfg.Storage.Local, cfg.Server.BaseURL)
	})
}

// Backend implements storage.Backend on the local filesystem.
type Backend struct {
	basePath string
	baseURL  string
}

// New creates a local filesystem backend rooted at cfg.BasePath.
func New(cfg *config.LocalStorageConfig, serverBaseURL string) (*Backend, error) {
	if err := os.MkdirAll(cfg.BasePath, 0750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &Backend{
		basePath: cfg.BasePath,
		baseURL:  strings.TrimRight(serverBaseURL, "/"),
	}, nil
}

// Upload stores a file, computing its SHA256 while writing.
func (b *Backend) Upload(ctx context.Context, path string, reader io.Reader, size int64) (*storage.UploadResult, error) {
	fullPath := filepath.Join(b.basePath, filepath.FromSlash(path))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(file, hasher), reader)
	if err != nil {
		_ = os.Remove(fullPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &storage.UploadResult{
		Path:     path,
		Size:     written,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Download opens a stored file.
func (b *Backend) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath := filepath.Join(b.basePath, filepath.FromSlash(path))

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete removes a stored file and prunes empty parent directories.
func (b *Backend) Delete(ctx context.Context, path string) error {
	fullPath := filepath.Join(b.basePath, filepath.FromSlash(path))

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	// Best effort cleanup of now-empty directories.
	dir := filepath.Dir(fullPath)
	for dir != b.basePath {
		if err := os.Remove(dir); err != nil {
			break
		}
		dir = filepath.Dir(dir)
	}

	return nil
}

// Exists checks for a stored file.
func (b *Backend) Exists(ctx context.Context, path string) (bool, error) {
	fullPath := filepath.Join(b.basePath, filepath.FromSlash(path))

	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}

	return true, nil
}

// PresignDownload returns a URL served by the API's file route. The ttl is
// ignored: filesystem files carry no expiring signature.
func (b *Backend) PresignDownload(ctx context.Context, path string, ttl time.Duration) (string, error) {
	exists, err := b.Exists(ctx, path)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("file not found: %s", path)
	}

	return fmt.Sprintf("%s/api/v1/files/%s", b.baseURL, path), nil
}

// PresignUpload is unsupported; uploads go through the API.
func (b *Backend) PresignUpload(ctx context.Context, path string, ttl time.Duration) (string, error) {
	return "", storage.ErrPresignUnsupported
}

// Open returns an open file and its size for serving over HTTP.
func (b *Backend) Open(path string) (*os.File, int64, error) {
	fullPath := filepath.Join(b.basePath, filepath.FromSlash(path))

	stat, err := os.Stat(fullPath)
	if err != nil {
		return nil, 0, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		return nil, 0, err
	}
	return file, stat.Size(), nil
}
