// versions.go implements CRUD and listing for the version leaves of the
// hierarchy. Deleting a version also removes its stored artifact.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/module-registry/module-registry/internal/artifacts"
	"github.com/module-registry/module-registry/internal/registry"
)

type versionRequest struct {
	Version string `json:"version" binding:"required"`
}

// CreateVersionHandler handles version creation requests. The version string
// is canonicalised ("v1.2" is stored as "1.2.0") before insertion.
// Implements: POST /api/v1/organizations/:org/modules/:module/providers/:provider/versions
func CreateVersionHandler(svc *registry.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req versionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "request body must carry a version"})
			return
		}

		version, err := svc.CreateVersion(c.Request.Context(), c.Param("org"), c.Param("module"), c.Param("provider"), req.Version)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, version)
	}
}

// ListVersionsHandler handles paginated version listing within a provider
// Implements: GET /api/v1/organizations/:org/modules/:module/providers/:provider/versions?limit=N&marker=M
func ListVersionsHandler(svc *registry.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := pageLimit(c)
		if !ok {
			return
		}

		page, err := svc.ListVersions(c.Request.Context(), c.Param("org"), c.Param("module"), c.Param("provider"), limit, c.Query("marker"))
		if err != nil {
			renderError(c, err)
			return
		}
		renderPage(c, limit, page)
	}
}

// GetVersionHandler handles single version reads
// Implements: GET /api/v1/organizations/:org/modules/:module/providers/:provider/versions/:version
func GetVersionHandler(svc *registry.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.ResolveVersion(c.Request.Context(), c.Param("org"), c.Param("module"), c.Param("provider"), c.Param("version"))
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, p.Version)
	}
}

// DeleteVersionHandler handles version deletion. The stored artifact object
// is removed afterwards; a failed object delete does not fail the request
// because the database row is already gone.
// Implements: DELETE /api/v1/organizations/:org/modules/:module/providers/:provider/versions/:version
func DeleteVersionHandler(svc *registry.Service, gateway *artifacts.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		version, err := svc.DeleteVersion(c.Request.Context(), c.Param("org"), c.Param("module"), c.Param("provider"), c.Param("version"))
		if err != nil {
			renderError(c, err)
			return
		}

		if err := gateway.Remove(c.Request.Context(), version.ID); err != nil {
			slog.Warn("failed to remove artifact for deleted version",
				"version_id", version.ID, "error", err)
		}
		c.Status(http.StatusNoContent)
	}
}
