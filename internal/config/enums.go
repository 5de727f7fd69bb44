package config

import (
	"strings"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/foundation/normalization"
)

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffNormalizer = normalization.NewNormalizer(map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"constant":    RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
	"exp":         RetryBackoffExponential,
}, "")

// NormalizeRetryBackoff converts user input (case-insensitive) into a typed mode, returning empty string for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	return retryBackoffNormalizer.Normalize(raw)
}

// StoreDriver selects the build data store backend.
type StoreDriver string

const (
	StoreDriverSQLite   StoreDriver = "sqlite"
	StoreDriverPostgres StoreDriver = "postgres"
)

var storeDriverNormalizer = normalization.NewNormalizer(map[string]StoreDriver{
	"sqlite":     StoreDriverSQLite,
	"sqlite3":    StoreDriverSQLite,
	"postgres":   StoreDriverPostgres,
	"postgresql": StoreDriverPostgres,
	"pg":         StoreDriverPostgres,
}, "")

// CollisionPolicy decides what happens when two routes sanitize to the same file.
type CollisionPolicy string

const (
	CollisionSuffix CollisionPolicy = "suffix"
	CollisionFail   CollisionPolicy = "fail"
)

var collisionPolicyNormalizer = normalization.NewNormalizer(map[string]CollisionPolicy{
	"suffix": CollisionSuffix,
	"hash":   CollisionSuffix,
	"fail":   CollisionFail,
	"error":  CollisionFail,
}, "")

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelNormalizer = normalization.NewNormalizer(map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}, "")

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormatNormalizer = normalization.NewNormalizer(map[string]LogFormat{
	"json":   LogFormatJSON,
	"text":   LogFormatText,
	"logfmt": LogFormatText,
}, "")

// normalizeEnum maps raw onto its canonical value. Unknown input is only
// lowercased so Validate can report it.
func normalizeEnum[T ~string](n *normalization.Normalizer[T], raw T) T {
	if v, err := n.NormalizeWithError(string(raw)); err == nil {
		return v
	}
	return T(strings.ToLower(strings.TrimSpace(string(raw))))
}
