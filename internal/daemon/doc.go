// Package daemon assembles the export service from configuration and runs
// it behind the HTTP server until stopped.
package daemon
