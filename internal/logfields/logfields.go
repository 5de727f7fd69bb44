package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyExportName = "export"
	KeyBuildID    = "build_id"
	KeyJobToken   = "job_token"
	KeyJobStatus  = "job_status"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyRoute      = "route"
	KeyBytes      = "bytes"
	KeyCount      = "count"
	KeyComponent  = "component"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func ExportName(name string) slog.Attr { return slog.String(KeyExportName, name) }
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func JobToken(t string) slog.Attr      { return slog.String(KeyJobToken, t) }
func JobStatus(s string) slog.Attr     { return slog.String(KeyJobStatus, s) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Route(r string) slog.Attr         { return slog.String(KeyRoute, r) }
func Bytes(n int64) slog.Attr          { return slog.Int64(KeyBytes, n) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Component(c string) slog.Attr     { return slog.String(KeyComponent, c) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr    { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(a string) slog.Attr    { return slog.String(KeyRemoteAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
