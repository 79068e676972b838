// discovery.go implements the Terraform-style version discovery document.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/module-registry/module-registry/internal/registry"
)

// DiscoveryVersionsHandler lists every version of a provider in the shape
// terraform init consumes: a single module entry with its source string and
// the full, unpaginated version list.
// Implements: GET /v1/:org/:module/:provider/versions
func DiscoveryVersionsHandler(svc *registry.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		org, module, provider := c.Param("org"), c.Param("module"), c.Param("provider")

		_, versions, err := svc.AllVersions(c.Request.Context(), org, module, provider)
		if err != nil {
			renderError(c, err)
			return
		}

		entries := make([]gin.H, 0, len(versions))
		for _, v := range versions {
			entries = append(entries, gin.H{"version": v.Version})
		}

		c.JSON(http.StatusOK, gin.H{
			"modules": []gin.H{
				{
					"source":   org + "/" + module + "/" + provider,
					"versions": entries,
				},
			},
		})
	}
}
