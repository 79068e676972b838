// Package pagination implements opaque, forward-only keyset pagination over
// any ordered child collection of the hierarchy.
//
// A marker is the URL-safe base64 encoding (padding stripped) of the anchor
// row's raw UUID bytes. The anchor is the first row of the next page: list
// queries fetch limit+1 rows, return the first limit, and encode the probe
// row's id as the next marker. Continuation filters on the composite key
// (created_at, id) so rows that share the anchor's timestamp are neither
// skipped nor returned twice, and the walk is stable under concurrent inserts
// of newer rows and deletes of already-yielded rows.
package pagination

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit applies when the caller supplies no limit.
	DefaultLimit = 20
	// MaxLimit caps the page size.
	MaxLimit = 100
)

var (
	// ErrInvalidMarker reports a marker that is not valid base64 over 16 raw
	// UUID bytes. Tampered or truncated markers land here.
	ErrInvalidMarker = errors.New("invalid pagination marker")

	// ErrUnknownMarker reports a structurally valid marker whose anchor row no
	// longer exists (typically deleted after the marker was issued).
	ErrUnknownMarker = errors.New("unknown pagination marker")
)

// Anchor identifies the row a continuation resumes from.
type Anchor struct {
	ID        string
	CreatedAt time.Time
}

// Source is an id-addressable, ordered child collection. Implementations are
// thin adapters over an entity repository; the engine itself is entity-agnostic.
type Source[T any] interface {
	// Anchor resolves a row id to its sort position. Returns nil (no error)
	// when the id does not exist.
	Anchor(ctx context.Context, id string) (*Anchor, error)

	// ListFrom returns up to limit rows ordered by created_at DESC, id DESC,
	// starting at the anchor row inclusive. A nil anchor starts at the newest
	// row.
	ListFrom(ctx context.Context, from *Anchor, limit int) ([]T, error)
}

// Page is one page of results. NextMarker is empty at the end of the
// collection.
type Page[T any] struct {
	Items      []T
	NextMarker string
}

// ClampLimit normalises a requested page size into [1, MaxLimit], applying
// DefaultLimit for zero or negative values.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// EncodeMarker encodes a row's UUID as an opaque marker.
func EncodeMarker(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("marker source id is not a UUID: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(parsed[:]), nil
}

// DecodeMarker decodes an opaque marker back to its UUID string form.
func DecodeMarker(marker string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(marker)
	if err != nil {
		return "", ErrInvalidMarker
	}
	id, err := uuid.FromBytes(raw)
	if err != nil {
		return "", ErrInvalidMarker
	}
	return id.String(), nil
}

// List produces one page from src. limit is clamped; marker may be empty for
// the first page. idOf extracts a row's id for encoding the next marker.
func List[T any](ctx context.Context, src Source[T], limit int, marker string, idOf func(T) string) (*Page[T], error) {
	limit = ClampLimit(limit)

	var from *Anchor
	if marker != "" {
		id, err := DecodeMarker(marker)
		if err != nil {
			return nil, err
		}
		from, err = src.Anchor(ctx, id)
		if err != nil {
			return nil, err
		}
		if from == nil {
			return nil, ErrUnknownMarker
		}
	}

	rows, err := src.ListFrom(ctx, from, limit+1)
	if err != nil {
		return nil, err
	}

	page := &Page[T]{Items: rows}
	if len(rows) > limit {
		next, err := EncodeMarker(idOf(rows[limit]))
		if err != nil {
			return nil, err
		}
		page.Items = rows[:limit]
		page.NextMarker = next
	}
	return page, nil
}

// NextLink rebuilds the request URL for the following page, replicating the
// original query parameters with limit and marker substituted.
func NextLink(requestURL *url.URL, limit int, marker string) string {
	next := *requestURL
	q := next.Query()
	q.Set("limit", strconv.Itoa(ClampLimit(limit)))
	q.Set("marker", marker)
	next.RawQuery = q.Encode()
	return next.String()
}
