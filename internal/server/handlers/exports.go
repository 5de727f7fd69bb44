package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/eventstore"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/exporter"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/exportjob"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/foundation/errors"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/logfields"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/server/responses"
)

// DownloadPrefix is the path archives are served under.
const DownloadPrefix = "/cgi/static/ssg/"

// maxRequestBody bounds POST /api/exports bodies.
const maxRequestBody = 64 << 10

// ExportService is the part of the export orchestrator the handlers use.
type ExportService interface {
	Submit(ctx context.Context, buildID, name string) (exportjob.Job, error)
	Status(name string) (exportjob.Job, bool)
	FilePath(name string) (string, bool)
	Jobs() []exportjob.Job
}

// EventHistory reads persisted export events.
type EventHistory interface {
	ByExport(ctx context.Context, name string) ([]eventstore.Record, error)
}

// ExportHandlers serves the /api/exports endpoints.
type ExportHandlers struct {
	service      ExportService
	history      EventHistory
	errorAdapter *errors.HTTPErrorAdapter
}

// NewExportHandlers creates the export API handlers. history may be nil
// when the event store is disabled.
func NewExportHandlers(service ExportService, history EventHistory) *ExportHandlers {
	return &ExportHandlers{
		service:      service,
		history:      history,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// DownloadURL returns the download path for name.
func DownloadURL(name string) string {
	return DownloadPrefix + url.PathEscape(name)
}

// HandleCreate submits an export and answers 202 with the pending job.
func (h *ExportHandlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req responses.ExportRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryValidation, "failed to read request body").Build())
		return
	}
	if err := json.Unmarshal(body, &req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryValidation, "invalid JSON body").Build())
		return
	}
	if req.BuildID == "" {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("buildId is required").Build())
		return
	}
	if req.Name == "" {
		req.Name = exporter.GenerateName(req.BuildID)
	}

	job, err := h.service.Submit(r.Context(), req.BuildID, req.Name)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/exports/"+url.PathEscape(job.Name))
	if err := writeJSON(w, http.StatusAccepted, responses.NewExportResponse(job, DownloadURL(job.Name))); err != nil {
		slog.Error("failed to write export response", logfields.ExportName(job.Name), logfields.Error(err))
	}
}

// HandleList lists every tracked export.
func (h *ExportHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	jobs := h.service.Jobs()
	resp := responses.ExportListResponse{
		Exports:   make([]responses.ExportResponse, 0, len(jobs)),
		Count:     len(jobs),
		Timestamp: time.Now().UTC(),
	}
	for _, job := range jobs {
		resp.Exports = append(resp.Exports, responses.NewExportResponse(job, DownloadURL(job.Name)))
	}
	if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to write export list").Build())
	}
}

// HandleGet returns one export or 404.
func (h *ExportHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	job, ok := h.service.Status(name)
	if !ok {
		h.errorAdapter.WriteErrorResponse(w, r, errors.NotFoundError("export not found").WithContext("name", name).Build())
		return
	}
	if err := writeJSONPretty(w, r, http.StatusOK, responses.NewExportResponse(job, DownloadURL(job.Name))); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to write export").Build())
	}
}

// HandleEvents returns the persisted lifecycle events of an export. Events
// outlive registry entries, so an expired export still has history.
func (h *ExportHandlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.NotFoundError("event history is disabled").Build())
		return
	}
	name := r.PathValue("name")
	records, err := h.history.ByExport(r.Context(), name)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if len(records) == 0 {
		h.errorAdapter.WriteErrorResponse(w, r, errors.NotFoundError("no events recorded for export").WithContext("name", name).Build())
		return
	}
	if err := writeJSONPretty(w, r, http.StatusOK, responses.ExportEventsResponse{Name: name, Events: records}); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to write export events").Build())
	}
}
