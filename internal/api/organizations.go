// organizations.go implements CRUD and listing for the top level of the
// registry hierarchy.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/module-registry/module-registry/internal/registry"
)

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateOrganizationHandler handles organization creation requests
// Implements: POST /api/v1/organizations
func CreateOrganizationHandler(svc *registry.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req nameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "request body must carry a name"})
			return
		}

		org, err := svc.CreateOrganization(c.Request.Context(), req.Name)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, org)
	}
}

// ListOrganizationsHandler handles paginated organization listing
// Implements: GET /api/v1/organizations?limit=N&marker=M
func ListOrganizationsHandler(svc *registry.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := pageLimit(c)
		if !ok {
			return
		}

		page, err := svc.ListOrganizations(c.Request.Context(), limit, c.Query("marker"))
		if err != nil {
			renderError(c, err)
			return
		}
		renderPage(c, limit, page)
	}
}

// GetOrganizationHandler handles single organization reads
// Implements: GET /api/v1/organizations/:org
func GetOrganizationHandler(svc *registry.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		org, err := svc.ResolveOrganization(c.Request.Context(), c.Param("org"))
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, org)
	}
}

// DeleteOrganizationHandler handles organization deletion. Organizations that
// still own modules are refused with a conflict.
// Implements: DELETE /api/v1/organizations/:org
func DeleteOrganizationHandler(svc *registry.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteOrganization(c.Request.Context(), c.Param("org")); err != nil {
			renderError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
