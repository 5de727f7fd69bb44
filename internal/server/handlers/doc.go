// Package handlers contains HTTP handlers for the autobuilder API.
//
// This package provides handlers for:
//   - Export submission, listing and status lookups
//   - The archive download endpoint
//   - Health checks
//
// JSON endpoints report failures through the foundation/errors
// HTTPErrorAdapter. The download endpoint answers with plain-text bodies
// so browsers show the message directly.
package handlers
