// Package responses defines API response types used by the autobuilder HTTP handlers.
package responses

import (
	"time"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/eventstore"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/exportjob"
)

// ExportRequest is the body of POST /api/exports.
type ExportRequest struct {
	BuildID string `json:"buildId"`
	Name    string `json:"name,omitempty"`
}

// ExportResponse describes one export job.
type ExportResponse struct {
	Name        string    `json:"name"`
	BuildID     string    `json:"buildId"`
	Token       string    `json:"token"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	SubmittedAt time.Time `json:"submittedAt"`
	DownloadURL string    `json:"downloadUrl"`
}

// ExportListResponse lists every tracked export.
type ExportListResponse struct {
	Exports   []ExportResponse `json:"exports"`
	Count     int              `json:"count"`
	Timestamp time.Time        `json:"timestamp"`
}

// ExportEventsResponse carries the persisted lifecycle events of an export.
type ExportEventsResponse struct {
	Name   string              `json:"name"`
	Events []eventstore.Record `json:"events"`
}

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	Version        string    `json:"version"`
	Uptime         float64   `json:"uptime"`
	PendingExports int       `json:"pending_exports"`
}

// NewExportResponse converts a registry entry. downloadURL is the path the
// archive is served from.
func NewExportResponse(job exportjob.Job, downloadURL string) ExportResponse {
	return ExportResponse{
		Name:        job.Name,
		BuildID:     job.BuildID,
		Token:       job.Token,
		Status:      string(job.Status),
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		SubmittedAt: job.SubmittedAt,
		DownloadURL: downloadURL,
	}
}
