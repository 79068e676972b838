// archive.go validates the structure of uploaded tar.gz archives: gzip and
// tar integrity, path traversal, and total size.
package validation

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// MaxArchiveSize is the default maximum size for an artifact archive (100MB)
const MaxArchiveSize = 100 * 1024 * 1024

// ValidateArchive validates a tar.gz archive read from reader.
func ValidateArchive(reader io.Reader, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = MaxArchiveSize
	}

	// Cap the compressed input at maxSize+1: one extra byte distinguishes
	// "exactly at the cap" from "over it". Truncation makes the tar reader
	// fail mid-stream, so a decode error once the cap is consumed is
	// reported as a size violation, not a corrupt archive.
	counted := &countingReader{r: io.LimitReader(reader, maxSize+1)}

	sizeError := fmt.Errorf("archive size exceeds maximum allowed size of %d bytes", maxSize)

	gzReader, err := gzip.NewReader(counted)
	if err != nil {
		if counted.n > maxSize {
			return sizeError
		}
		return fmt.Errorf("invalid gzip format: %w", err)
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)

	var totalSize int64
	fileCount := 0

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if counted.n > maxSize {
				return sizeError
			}
			return fmt.Errorf("invalid tar format: %w", err)
		}

		fileCount++
		totalSize += header.Size

		if err := validatePath(header.Name); err != nil {
			return fmt.Errorf("invalid file path in archive: %w", err)
		}

		if totalSize > maxSize {
			return sizeError
		}
	}

	if fileCount == 0 {
		return fmt.Errorf("archive is empty")
	}

	return nil
}

// countingReader tracks how many bytes have been consumed from r.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// validatePath rejects absolute paths and traversal sequences.
func validatePath(path string) error {
	path = filepath.Clean(path)

	if filepath.IsAbs(path) {
		return fmt.Errorf("absolute paths not allowed: %s", path)
	}

	// Windows-style absolute paths (e.g. C:\...) can appear in archives
	// produced on Windows hosts.
	if len(path) >= 3 && path[1] == ':' && (path[2] == '\\' || path[2] == '/') {
		return fmt.Errorf("absolute paths not allowed: %s", path)
	}

	if strings.Contains(path, "..") {
		return fmt.Errorf("path traversal not allowed: %s", path)
	}

	return nil
}
