// Package storage defines the Backend interface shared by all artifact
// storage backends.
//
// New backends are added by implementing the Backend interface and
// registering with the factory via an init() function in the backend's own
// package:
//
//	func init() {
//	    storage.Register("mybackend", func(cfg *config.Config) (Backend, error) {
//	        return NewMyBackend(cfg)
//	    })
//	}
//
// The main package imports each backend with a blank import to trigger
// init(). Adding a backend requires no changes to the factory itself.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrPresignUnsupported is returned by backends that cannot mint presigned
// client-direct URLs. Callers fall back to proxying through the API.
var ErrPresignUnsupported = errors.New("backend does not support presigned URLs")

// Backend is the interface all storage backends implement. Download traffic
// is expected to go through presigned URLs rather than the Download method;
// Download exists for backends that proxy (local) and for integrity checks.
type Backend interface {
	// Upload stores an object and returns its size and SHA256 checksum.
	Upload(ctx context.Context, path string, reader io.Reader, size int64) (*UploadResult, error)

	// Download returns a reader over the object's content.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error

	// Exists reports whether an object is present.
	Exists(ctx context.Context, path string) (bool, error)

	// PresignDownload returns a time-limited URL the client fetches the
	// object from directly.
	PresignDownload(ctx context.Context, path string, ttl time.Duration) (string, error)

	// PresignUpload returns a time-limited URL the client PUTs the object
	// to directly, bypassing the API. Backends without signing support
	// return ErrPresignUnsupported.
	PresignUpload(ctx context.Context, path string, ttl time.Duration) (string, error)
}

// UploadResult describes a stored object.
type UploadResult struct {
	// Path is the object key the content was stored under.
	Path string

	// Size is the object size in bytes.
	Size int64

	// Checksum is the SHA256 hash of the content, hex encoded.
	Checksum string
}
