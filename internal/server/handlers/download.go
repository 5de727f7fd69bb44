package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/exportjob"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/logfields"
)

// Download answers GET /cgi/static/ssg/{name...} from registry state.
type Download struct {
	service ExportService
}

// NewDownload creates the download handler.
func NewDownload(service ExportService) *Download {
	return &Download{service: service}
}

func (d *Download) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		http.Error(w, "Filename required", http.StatusBadRequest)
		return
	}

	job, ok := d.service.Status(name)
	if !ok {
		http.Error(w, "Export not found. The export may have expired or never started.", http.StatusNotFound)
		return
	}
	switch job.Status {
	case exportjob.StatusPending:
		http.Error(w, "Export still in progress. Please wait...", http.StatusAccepted)
		return
	case exportjob.StatusFailed:
		http.Error(w, "Export failed: "+job.Error, http.StatusInternalServerError)
		return
	}

	path, ok := d.service.FilePath(name)
	if !ok {
		http.Error(w, "Export file not found on disk", http.StatusNotFound)
		return
	}
	f, err := os.Open(path) // #nosec G304 -- path comes from the registry, not the request
	if err != nil {
		http.Error(w, "Export file not found on disk", http.StatusNotFound)
		return
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.Error(w, "Export file not found on disk", http.StatusNotFound)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/zip")
	h.Set("Content-Disposition", `attachment; filename="`+name+`"`)
	h.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	h.Set("Cache-Control", "private, no-cache")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, f); err != nil {
		slog.Warn("Archive download interrupted", logfields.ExportName(name), logfields.Error(err))
	}
}
