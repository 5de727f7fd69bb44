package httpserver

import (
	"net/http"
	"time"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/server/handlers"
)

// Options configures the runtime-specific wiring of the server.
type Options struct {
	// Service runs and tracks exports. Required.
	Service handlers.ExportService

	// Optional: persisted event history for /api/exports/{name}/events.
	History handlers.EventHistory

	// Optional: mounted at /metrics when set.
	PrometheusHandler http.Handler

	// StartTime is reported as uptime by /healthz. Zero means now.
	StartTime time.Time
}
