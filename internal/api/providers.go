// providers.go implements CRUD and listing for providers under a module.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/module-registry/module-registry/internal/registry"
)

// CreateProviderHandler handles provider creation requests
// Implements: POST /api/v1/organizations/:org/modules/:module/providers
func CreateProviderHandler(svc *registry.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req nameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "request body must carry a name"})
			return
		}

		provider, err := svc.CreateProvider(c.Request.Context(), c.Param("org"), c.Param("module"), req.Name)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, provider)
	}
}

// ListProvidersHandler handles paginated provider listing within a module
// Implements: GET /api/v1/organizations/:org/modules/:module/providers?limit=N&marker=M
func ListProvidersHandler(svc *registry.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := pageLimit(c)
		if !ok {
			return
		}

		page, err := svc.ListProviders(c.Request.Context(), c.Param("org"), c.Param("module"), limit, c.Query("marker"))
		if err != nil {
			renderError(c, err)
			return
		}
		renderPage(c, limit, page)
	}
}

// GetProviderHandler handles single provider reads
// Implements: GET /api/v1/organizations/:org/modules/:module/providers/:provider
func GetProviderHandler(svc *registry.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.ResolveProvider(c.Request.Context(), c.Param("org"), c.Param("module"), c.Param("provider"))
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, p.Provider)
	}
}

// DeleteProviderHandler handles provider deletion. Providers that still own
// versions are refused with a conflict.
// Implements: DELETE /api/v1/organizations/:org/modules/:module/providers/:provider
func DeleteProviderHandler(svc *registry.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteProvider(c.Request.Context(), c.Param("org"), c.Param("module"), c.Param("provider")); err != nil {
			renderError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
