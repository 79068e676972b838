package local

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/module-registry/module-registry/internal/config"
	"github.com/module-registry/module-registry/internal/storage"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New(&config.LocalStorageConfig{BasePath: t.TempDir()}, "http://registry.example.com/")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return b
}

func TestNew_CreatesDirectory(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "artifacts")

	_, err := New(&config.LocalStorageConfig{BasePath: base}, "http://localhost:8080")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if _, err := os.Stat(base); err != nil {
		t.Errorf("base path not created: %v", err)
	}
}

func TestUpload(t *testing.T) {
	b := newTestBackend(t)

	data := []byte("archive bytes")
	result, err := b.Upload(context.Background(), "v/aaaa.tar.gz", bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	if result.Size != int64(len(data)) {
		t.Errorf("Size = %d, want %d", result.Size, len(data))
	}
	sum := sha256.Sum256(data)
	if result.Checksum != hex.EncodeToString(sum[:]) {
		t.Errorf("Checksum = %s, want sha256 of content", result.Checksum)
	}

	stored, err := os.ReadFile(filepath.Join(b.basePath, "v", "aaaa.tar.gz"))
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if !bytes.Equal(stored, data) {
		t.Error("stored content does not match upload")
	}
}

func TestDownload(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	data := []byte("round trip")
	if _, err := b.Upload(ctx, "v/bbbb.zip", bytes.NewReader(data), int64(len(data))); err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	reader, err := b.Download(ctx, "v/bbbb.zip")
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	defer reader.Close()

	got, _ := io.ReadAll(reader)
	if !bytes.Equal(got, data) {
		t.Error("downloaded content does not match upload")
	}
}

func TestDownload_NotFound(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.Download(context.Background(), "missing")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDelete(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	data := []byte("x")
	if _, err := b.Upload(ctx, "v/cccc.tar.gz", bytes.NewReader(data), 1); err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	if err := b.Delete(ctx, "v/cccc.tar.gz"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	exists, _ := b.Exists(ctx, "v/cccc.tar.gz")
	if exists {
		t.Error("file still exists after delete")
	}
}

func TestDelete_MissingFile(t *testing.T) {
	b := newTestBackend(t)

	if err := b.Delete(context.Background(), "never-uploaded"); err != nil {
		t.Errorf("Delete() of missing file: %v", err)
	}
}

func TestDelete_PrunesEmptyParents(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	data := []byte("x")
	if _, err := b.Upload(ctx, "deep/nested/dir/file.zip", bytes.NewReader(data), 1); err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	if err := b.Delete(ctx, "deep/nested/dir/file.zip"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(b.basePath, "deep")); !os.IsNotExist(err) {
		t.Error("empty parent directories not pruned")
	}
}

func TestExists(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	exists, err := b.Exists(ctx, "missing")
	if err != nil {
		t.Fatalf("Exists() error: %v", err)
	}
	if exists {
		t.Error("Exists() = true for missing file")
	}

	if _, err := b.Upload(ctx, "present.zip", bytes.NewReader([]byte("x")), 1); err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	exists, err = b.Exists(ctx, "present.zip")
	if err != nil {
		t.Fatalf("Exists() error: %v", err)
	}
	if !exists {
		t.Error("Exists() = false for present file")
	}
}

func TestPresignDownload_ServesThroughAPI(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	if _, err := b.Upload(ctx, "v/dddd.tar.gz", bytes.NewReader([]byte("x")), 1); err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	url, err := b.PresignDownload(ctx, "v/dddd.tar.gz", 5*time.Minute)
	if err != nil {
		t.Fatalf("PresignDownload() error: %v", err)
	}
	want := "http://registry.example.com/api/v1/files/v/dddd.tar.gz"
	if url != want {
		t.Errorf("URL = %q, want %q", url, want)
	}
}

func TestPresignDownload_NotFound(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.PresignDownload(context.Background(), "missing", 5*time.Minute)
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPresignUpload_Unsupported(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.PresignUpload(context.Background(), "anything", 5*time.Minute)
	if !errors.Is(err, storage.ErrPresignUnsupported) {
		t.Errorf("err = %v, want ErrPresignUnsupported", err)
	}
}

func TestOpen(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	data := []byte("served bytes")
	if _, err := b.Upload(ctx, "v/eeee.zip", bytes.NewReader(data), int64(len(data))); err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	file, size, err := b.Open("v/eeee.zip")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer file.Close()

	if size != int64(len(data)) {
		t.Errorf("size = %d, want %d", size, len(data))
	}
}
