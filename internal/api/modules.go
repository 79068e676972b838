// modules.go implements CRUD and listing for modules under an organization.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/module-registry/module-registry/internal/registry"
)

// CreateModuleHandler handles module creation requests
// Implements: POST /api/v1/organizations/:org/modules
func CreateModuleHandler(svc *registry.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req nameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "request body must carry a name"})
			return
		}

		module, err := svc.CreateModule(c.Request.Context(), c.Param("org"), req.Name)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, module)
	}
}

// ListModulesHandler handles paginated module listing within an organization
// Implements: GET /api/v1/organizations/:org/modules?limit=N&marker=M
func ListModulesHandler(svc *registry.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := pageLimit(c)
		if !ok {
			return
		}

		page, err := svc.ListModules(c.Request.Context(), c.Param("org"), limit, c.Query("marker"))
		if err != nil {
			renderError(c, err)
			return
		}
		renderPage(c, limit, page)
	}
}

// GetModuleHandler handles single module reads
// Implements: GET /api/v1/organizations/:org/modules/:module
func GetModuleHandler(svc *registry.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.ResolveModule(c.Request.Context(), c.Param("org"), c.Param("module"))
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, p.Module)
	}
}

// DeleteModuleHandler handles module deletion. Modules that still own
// providers are refused with a conflict.
// Implements: DELETE /api/v1/organizations/:org/modules/:module
func DeleteModuleHandler(svc *registry.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteModule(c.Request.Context(), c.Param("org"), c.Param("module")); err != nil {
			renderError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
