package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, labelled by method, route template, and status code.
//
// The path label holds the Gin route template (e.g.
// /api/v1/organizations/:org/modules), not the raw URL, so user-supplied path
// segments cannot inflate label cardinality.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Artifact gateway metrics.
var (
	// ArtifactDownloadsTotal counts authorised artifact downloads, labelled by
	// organization so per-tenant consumption is visible without per-version
	// cardinality.
	ArtifactDownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_artifact_downloads_total",
			Help: "Total number of artifact download URLs issued, by organization.",
		},
		[]string{"organization"},
	)

	// ArtifactUploadsTotal counts accepted artifact uploads.
	ArtifactUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_artifact_uploads_total",
			Help: "Total number of artifact uploads accepted, by organization.",
		},
		[]string{"organization"},
	)
)

// Database pool gauges, polled by StartDBPoolCollector.
var (
	DBConnectionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "registry_db_connections_open",
		Help: "Number of open database connections (in use + idle).",
	})

	DBConnectionsInUse = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "registry_db_connections_in_use",
		Help: "Number of database connections currently in use.",
	})
)

// StartDBPoolCollector polls db.Stats() every interval and exports the pool
// gauges until stop is closed. Run it as a goroutine from cmd/server.
func StartDBPoolCollector(db *sql.DB, interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats := db.Stats()
			DBConnectionsOpen.Set(float64(stats.OpenConnections))
			DBConnectionsInUse.Set(float64(stats.InUse))
		case <-stop:
			slog.Debug("db pool collector stopped")
			return
		}
	}
}
