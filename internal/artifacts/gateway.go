// Package artifacts bridges resolved versions to the object store. The API
// never streams artifact bytes on the download path: clients fetch from
// short-lived presigned URLs minted here. Objects are keyed by the version's
// opaque id, not its display names, so entity renames can never orphan stored
// content.
package artifacts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/module-registry/module-registry/internal/registry"
	"github.com/module-registry/module-registry/internal/storage"
	"github.com/module-registry/module-registry/internal/validation"
	"github.com/module-registry/module-registry/pkg/checksum"
)

const (
	// DownloadTTL bounds the life of a presigned download URL.
	DownloadTTL = 5 * time.Minute

	// UploadTTL bounds the life of a presigned upload URL. Uploads get more
	// headroom than downloads since clients push large archives upstream.
	UploadTTL = 15 * time.Minute

	// ArchiveFormat is the only archive format the registry serves. Uploads
	// may arrive as .zip, but download responses always hint tar.gz.
	ArchiveFormat = "tar.gz"
)

// AllowedExtensions lists the upload filename extensions accepted by
// ValidateUploadName, longest first so ".tar.gz" wins over a plain suffix
// check.
var AllowedExtensions = []string{".tar.gz", ".zip"}

// ErrUnsupportedMediaType reports an upload filename outside the allow-list.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// ErrInvalidArchive reports a tar.gz upload that failed structural
// validation (bad gzip, bad tar, path traversal, or over the size cap).
var ErrInvalidArchive = errors.New("invalid archive")

// ErrArtifactMissing reports a download request for a version with no stored
// object.
var ErrArtifactMissing = errors.New("no artifact stored for version")

// Gateway issues storage credentials and proxies uploads for versions.
type Gateway struct {
	backend         storage.Backend
	maxArchiveBytes int64
}

func NewGateway(backend storage.Backend, maxArchiveBytes int64) *Gateway {
	if maxArchiveBytes <= 0 {
		maxArchiveBytes = validation.MaxArchiveSize
	}
	return &Gateway{
		backend:         backend,
		maxArchiveBytes: maxArchiveBytes,
	}
}

// ObjectPath returns the object-store key for a version. The key depends
// only on the immutable version id.
func ObjectPath(versionID string) string {
	return path.Join("artifacts", versionID)
}

// Fingerprint returns a stable content fingerprint for the fully-qualified
// version, usable as a deterministic secondary filename independent of the
// object key.
func Fingerprint(org, module, provider, version string) string {
	return checksum.SHA256String(org + "|" + module + "|" + provider + "|" + version)
}

// SuggestedFilename composes the client-side disposition filename for a
// resolved version.
func SuggestedFilename(p *registry.Path) string {
	return fmt.Sprintf("%s-%s-%s-%s.tar.gz",
		p.Organization.Name, p.Module.Name, p.Provider.Name, p.Version.Version)
}

// DownloadGrant is a time-boxed retrieval credential.
type DownloadGrant struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	Filename  string    `json:"filename"`
	Format    string    `json:"format"`
}

// UploadGrant is a time-boxed submission credential for client-direct
// uploads.
type UploadGrant struct {
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthorizeDownload mints a presigned download URL for a resolved version.
// Returns ErrArtifactMissing when no object has been uploaded yet.
func (g *Gateway) AuthorizeDownload(ctx context.Context, p *registry.Path) (*DownloadGrant, error) {
	key := ObjectPath(p.Version.ID)

	exists, err := g.backend.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check artifact: %w", err)
	}
	if !exists {
		return nil, ErrArtifactMissing
	}

	url, err := g.backend.PresignDownload(ctx, key, DownloadTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize download: %w", err)
	}

	return &DownloadGrant{
		URL:       url,
		ExpiresAt: time.Now().Add(DownloadTTL),
		Filename:  SuggestedFilename(p),
		Format:    ArchiveFormat,
	}, nil
}

// AuthorizeUpload mints a presigned PUT URL for a resolved version. Backends
// without signing support surface storage.ErrPresignUnsupported, which
// callers handle by proxying the upload instead.
func (g *Gateway) AuthorizeUpload(ctx context.Context, p *registry.Path) (*UploadGrant, error) {
	url, err := g.backend.PresignUpload(ctx, ObjectPath(p.Version.ID), UploadTTL)
	if err != nil {
		if errors.Is(err, storage.ErrPresignUnsupported) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to authorize upload: %w", err)
	}

	return &UploadGrant{
		URL:       url,
		Method:    "PUT",
		ExpiresAt: time.Now().Add(UploadTTL),
	}, nil
}

// ValidateUploadName rejects filenames outside the extension allow-list.
func ValidateUploadName(filename string) error {
	lower := strings.ToLower(filename)
	for _, ext := range AllowedExtensions {
		if strings.HasSuffix(lower, ext) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedMediaType, filename)
}

// Upload stores an uploaded archive for a resolved version. Tar-gzip
// archives are structurally validated (gzip and tar integrity, path
// traversal, size cap) before any bytes reach the object store.
func (g *Gateway) Upload(ctx context.Context, p *registry.Path, filename string, reader io.Reader, size int64) (*storage.UploadResult, error) {
	if err := ValidateUploadName(filename); err != nil {
		return nil, err
	}

	if strings.HasSuffix(strings.ToLower(filename), ".tar.gz") {
		data, err := io.ReadAll(io.LimitReader(reader, g.maxArchiveBytes+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read upload: %w", err)
		}
		if err := validation.ValidateArchive(bytes.NewReader(data), g.maxArchiveBytes); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
		}
		reader = bytes.NewReader(data)
		size = int64(len(data))
	}

	result, err := g.backend.Upload(ctx, ObjectPath(p.Version.ID), reader, size)
	if err != nil {
		return nil, fmt.Errorf("failed to store artifact: %w", err)
	}

	return result, nil
}

// Remove deletes the stored object for a version id. Absence is tolerated:
// versions created but never uploaded to have nothing to remove.
func (g *Gateway) Remove(ctx context.Context, versionID string) error {
	if err := g.backend.Delete(ctx, ObjectPath(versionID)); err != nil {
		return fmt.Errorf("failed to remove artifact: %w", err)
	}
	return nil
}
