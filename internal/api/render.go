// render.go maps service-layer errors onto HTTP responses and renders
// paginated list bodies.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/module-registry/module-registry/internal/artifacts"
	"github.com/module-registry/module-registry/internal/pagination"
	"github.com/module-registry/module-registry/internal/registry"
)

// renderError translates the registry error taxonomy into status codes. The
// mapping is deliberately exhaustive so handlers never branch on error types
// themselves.
func renderError(c *gin.Context, err error) {
	var notFound *registry.NotFoundError
	var exists *registry.AlreadyExistsError
	var children *registry.HasChildrenError
	var badName *registry.InvalidNameError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &exists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &children):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &badName):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, registry.ErrInvalidVersion):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, pagination.ErrInvalidMarker):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, pagination.ErrUnknownMarker):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, artifacts.ErrInvalidArchive):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, artifacts.ErrUnsupportedMediaType):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
	case errors.Is(err, artifacts.ErrArtifactMissing):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		slog.Error("request failed", "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// pageLimit parses the ?limit query parameter. Clamping to the allowed range
// happens inside the pagination package; this only rejects non-numeric input.
func pageLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
		return 0, false
	}
	return limit, true
}

// renderPage writes a list response. Marker and next are null on the final
// page so clients can test for the end without string comparisons.
func renderPage[T any](c *gin.Context, limit int, page *pagination.Page[T]) {
	items := page.Items
	if items == nil {
		items = []T{}
	}

	body := gin.H{"items": items, "marker": nil, "next": nil}
	if page.NextMarker != "" {
		body["marker"] = page.NextMarker
		body["next"] = pagination.NextLink(c.Request.URL, limit, page.NextMarker)
	}
	c.JSON(http.StatusOK, body)
}
