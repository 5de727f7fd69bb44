package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ferrors "github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/foundation/errors"
)

// Validate checks the configuration for values that cannot be applied.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(field, reason string) {
		errs = append(errs, ferrors.ConfigError(fmt.Sprintf("invalid %s: %s", field, reason)).
			WithContext("field", field).
			WithContext("reason", reason).
			Build())
	}

	if err := positiveDuration(c.Export.TTL); err != nil {
		invalid("export.ttl", err.Error())
	}
	if err := positiveDuration(c.Export.SweepInterval); err != nil {
		invalid("export.sweep_interval", err.Error())
	}
	if c.Export.CompressionLevel < 1 || c.Export.CompressionLevel > 9 {
		invalid("export.compression_level", "must be between 1 and 9")
	}
	switch c.Export.CollisionPolicy {
	case CollisionSuffix, CollisionFail:
	default:
		invalid("export.collision_policy", fmt.Sprintf("unknown policy %q", c.Export.CollisionPolicy))
	}

	switch c.Store.Driver {
	case StoreDriverSQLite, StoreDriverPostgres:
	default:
		invalid("store.driver", fmt.Sprintf("unknown driver %q", c.Store.Driver))
	}
	if strings.TrimSpace(c.Store.DSN) == "" {
		invalid("store.dsn", "required")
	}
	if c.Store.MaxConns < 1 {
		invalid("store.max_conns", "must be >= 1")
	}

	if c.NATS.Enabled && strings.TrimSpace(c.NATS.URL) == "" {
		invalid("nats.url", "required when nats is enabled")
	}

	if c.Mirror.Enabled {
		if strings.TrimSpace(c.Mirror.Endpoint) == "" {
			invalid("mirror.endpoint", "required when mirror is enabled")
		} else if strings.Contains(c.Mirror.Endpoint, "://") {
			invalid("mirror.endpoint", "must not include scheme")
		}
		if strings.TrimSpace(c.Mirror.Bucket) == "" {
			invalid("mirror.bucket", "required when mirror is enabled")
		}
		if c.Mirror.AccessKey == "" || c.Mirror.SecretKey == "" {
			invalid("mirror.credentials", "access_key and secret_key are required")
		}
	}
	if NormalizeRetryBackoff(string(c.Mirror.RetryBackoff)) == "" {
		invalid("mirror.retry_backoff", fmt.Sprintf("unknown mode %q", c.Mirror.RetryBackoff))
	}
	if _, err := time.ParseDuration(c.Mirror.RetryInitialDelay); err != nil {
		invalid("mirror.retry_initial_delay", err.Error())
	}
	if _, err := time.ParseDuration(c.Mirror.RetryMaxDelay); err != nil {
		invalid("mirror.retry_max_delay", err.Error())
	}
	if c.Mirror.MaxRetries < 0 {
		invalid("mirror.max_retries", "cannot be negative")
	}

	switch c.Logging.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		invalid("logging.level", fmt.Sprintf("unknown level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case LogFormatText, LogFormatJSON:
	default:
		invalid("logging.format", fmt.Sprintf("unknown format %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

func positiveDuration(raw string) error {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	if d <= 0 {
		return errors.New("must be positive")
	}
	return nil
}
