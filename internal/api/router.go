// Package api wires together all HTTP routes for the module registry.
//
// Route grouping philosophy:
//   - The management surface lives under /api/v1 and follows the hierarchy:
//     organizations contain modules, modules contain providers, providers
//     contain versions. Each level supports create, read, delete, and
//     marker-based listing.
//   - /v1/:org/:module/:provider/versions is the Terraform-style discovery
//     document and stays outside /api/v1 so that tooling which speaks the
//     discovery protocol does not need to know about the management API.
package api

import (
	"database/sql"
	"log"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/module-registry/module-registry/internal/artifacts"
	"github.com/module-registry/module-registry/internal/config"
	"github.com/module-registry/module-registry/internal/db/repositories"
	"github.com/module-registry/module-registry/internal/middleware"
	"github.com/module-registry/module-registry/internal/registry"
	"github.com/module-registry/module-registry/internal/storage"
	"github.com/module-registry/module-registry/internal/storage/local"

	// Import storage backends to register them
	_ "github.com/module-registry/module-registry/internal/storage/azure"
	_ "github.com/module-registry/module-registry/internal/storage/gcs"
	_ "github.com/module-registry/module-registry/internal/storage/s3"
)

// BackgroundServices holds resources that must be stopped during graceful
// shutdown. The caller (cmd/server) is responsible for calling Shutdown()
// when the process receives a termination signal.
type BackgroundServices struct {
	rateLimiters []*middleware.RateLimiter
}

// Shutdown stops all background goroutines. It should be called after the
// HTTP server has been shut down so that in-flight requests are drained
// first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	// Initialize storage backend
	storageBackend, err := storage.NewBackend(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage backend: %v", err)
	}
	log.Printf("Initialized storage backend: %s", cfg.Storage.DefaultBackend)

	// Initialize repositories; the version repository uses sqlx for struct
	// scanning, the rest share the plain *sql.DB.
	orgRepo := repositories.NewOrganizationRepository(db)
	moduleRepo := repositories.NewModuleRepository(db)
	providerRepo := repositories.NewProviderRepository(db)
	versionRepo := repositories.NewVersionRepository(sqlx.NewDb(db, "postgres"))

	svc := registry.NewService(orgRepo, moduleRepo, providerRepo, versionRepo)
	gateway := artifacts.NewGateway(storageBackend, cfg.Limits.MaxArchiveBytes)

	uploadLimiter := middleware.NewRateLimiter(middleware.UploadRateLimitConfig(
		cfg.Limits.UploadRequestsPerMinute, cfg.Limits.UploadBurst))
	backgroundServices := &BackgroundServices{
		rateLimiters: []*middleware.RateLimiter{uploadLimiter},
	}

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Readiness check endpoint (includes storage backend probe)
	router.GET("/ready", readinessHandler(db, storageBackend))

	// API version
	router.GET("/version", versionHandler())

	// Terraform remote service discovery
	router.GET("/.well-known/terraform.json", serviceDiscoveryHandler(cfg))

	// Terraform-style version discovery
	discovery := router.Group("/v1")
	{
		discovery.GET("/:org/:module/:provider/versions", DiscoveryVersionsHandler(svc))
	}

	api := router.Group("/api/v1")
	{
		orgs := api.Group("/organizations")
		{
			orgs.POST("", CreateOrganizationHandler(svc))
			orgs.GET("", ListOrganizationsHandler(svc))
			orgs.GET("/:org", GetOrganizationHandler(svc))
			orgs.DELETE("/:org", DeleteOrganizationHandler(svc))

			modules := orgs.Group("/:org/modules")
			{
				modules.POST("", CreateModuleHandler(svc))
				modules.GET("", ListModulesHandler(svc))
				modules.GET("/:module", GetModuleHandler(svc))
				modules.DELETE("/:module", DeleteModuleHandler(svc))

				providers := modules.Group("/:module/providers")
				{
					providers.POST("", CreateProviderHandler(svc))
					providers.GET("", ListProvidersHandler(svc))
					providers.GET("/:provider", GetProviderHandler(svc))
					providers.DELETE("/:provider", DeleteProviderHandler(svc))

					versions := providers.Group("/:provider/versions")
					{
						versions.POST("", CreateVersionHandler(svc))
						versions.GET("", ListVersionsHandler(svc))
						versions.GET("/:version", GetVersionHandler(svc))
						versions.DELETE("/:version", DeleteVersionHandler(svc, gateway))

						versions.GET("/:version/download", DownloadHandler(svc, gateway))
						versions.POST("/:version/upload",
							middleware.RateLimitMiddleware(uploadLimiter),
							UploadHandler(svc, gateway))
					}
				}
			}
		}

		// Direct file serving backs the local backend's download URLs; the
		// cloud backends hand out real presigned URLs instead.
		if localBackend, ok := storageBackend.(*local.Backend); ok {
			api.GET("/files/*filepath", ServeFileHandler(localBackend))
		}
	}

	return router, backgroundServices
}
