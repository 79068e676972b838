// artifacts.go implements the artifact download and upload endpoints, plus
// direct file serving for the local storage backend.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/module-registry/module-registry/internal/artifacts"
	"github.com/module-registry/module-registry/internal/registry"
	"github.com/module-registry/module-registry/internal/storage"
	"github.com/module-registry/module-registry/internal/storage/local"
	"github.com/module-registry/module-registry/internal/telemetry"
)

// DownloadHandler authorises an artifact download for a version. The default
// response is 204 with the presigned URL in the X-Terraform-Get header, the
// protocol shape terraform init expects. Clients that send
// Accept: application/json get a 200 with the full grant (url, expiry,
// suggested filename) instead; the header is set either way.
// Implements: GET /api/v1/organizations/:org/modules/:module/providers/:provider/versions/:version/download
func DownloadHandler(svc *registry.Service, gateway *artifacts.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		org := c.Param("org")
		p, err := svc.ResolveVersion(c.Request.Context(), org, c.Param("module"), c.Param("provider"), c.Param("version"))
		if err != nil {
			renderError(c, err)
			return
		}

		grant, err := gateway.AuthorizeDownload(c.Request.Context(), p)
		if err != nil {
			renderError(c, err)
			return
		}

		telemetry.ArtifactDownloadsTotal.WithLabelValues(org).Inc()

		c.Header("X-Terraform-Get", grant.URL)
		if strings.Contains(c.GetHeader("Accept"), "application/json") {
			c.JSON(http.StatusOK, grant)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// UploadHandler stores an artifact archive for a version. The default form is
// a multipart POST with a "file" field; tar.gz uploads are structurally
// validated before any bytes reach the object store. With ?presign=true the
// handler instead mints a presigned PUT URL so large archives bypass the
// registry; backends without signing support answer 501 and the client falls
// back to the multipart form.
// Implements: POST /api/v1/organizations/:org/modules/:module/providers/:provider/versions/:version/upload
func UploadHandler(svc *registry.Service, gateway *artifacts.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		org := c.Param("org")
		p, err := svc.ResolveVersion(c.Request.Context(), org, c.Param("module"), c.Param("provider"), c.Param("version"))
		if err != nil {
			renderError(c, err)
			return
		}

		if c.Query("presign") == "true" {
			grant, err := gateway.AuthorizeUpload(c.Request.Context(), p)
			if err != nil {
				if errors.Is(err, storage.ErrPresignUnsupported) {
					c.JSON(http.StatusNotImplemented, gin.H{"error": "presigned uploads are not supported by the storage backend"})
					return
				}
				renderError(c, err)
				return
			}
			telemetry.ArtifactUploadsTotal.WithLabelValues(org).Inc()
			c.JSON(http.StatusOK, grant)
			return
		}

		header, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid file upload"})
			return
		}

		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read uploaded file"})
			return
		}
		defer file.Close()

		result, err := gateway.Upload(c.Request.Context(), p, header.Filename, file, header.Size)
		if err != nil {
			renderError(c, err)
			return
		}

		telemetry.ArtifactUploadsTotal.WithLabelValues(org).Inc()

		c.JSON(http.StatusCreated, gin.H{
			"version":     p.Version.Version,
			"size":        result.Size,
			"checksum":    result.Checksum,
			"fingerprint": artifacts.Fingerprint(org, p.Module.Name, p.Provider.Name, p.Version.Version),
		})
	}
}

// ServeFileHandler streams stored objects over HTTP. Registered only when the
// local backend is active: its "presigned" download URLs point back at this
// route because the filesystem cannot sign anything.
// Implements: GET /api/v1/files/*filepath
func ServeFileHandler(backend *local.Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		filePath := strings.TrimPrefix(c.Param("filepath"), "/")
		if filePath == "" || strings.Contains(filePath, "..") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file path"})
			return
		}

		file, size, err := backend.Open(filePath)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		defer file.Close()

		c.Header("Content-Disposition", "attachment")
		c.DataFromReader(http.StatusOK, size, "application/octet-stream", file, nil)
	}
}
