package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultExportTTL        = time.Hour
	DefaultSweepInterval    = time.Minute
	DefaultCompressionLevel = 9
	DefaultHTTPAddr         = ":8080"
	DefaultNATSSubject      = "autobuilder.exports"
)

func applyDefaults(cfg *Config) {
	e := &cfg.Export
	if e.BundleDir == "" {
		e.BundleDir = filepath.Join(os.TempDir(), "autobuilder-exports")
	}
	if e.ScratchDir == "" {
		e.ScratchDir = filepath.Join(os.TempDir(), "autobuilder-scratch")
	}
	if e.TTL == "" {
		e.TTL = DefaultExportTTL.String()
	}
	if e.SweepInterval == "" {
		e.SweepInterval = DefaultSweepInterval.String()
	}
	if e.CompressionLevel == 0 {
		e.CompressionLevel = DefaultCompressionLevel
	}
	e.CollisionPolicy = normalizeEnum(collisionPolicyNormalizer, e.CollisionPolicy)
	if e.CollisionPolicy == "" {
		e.CollisionPolicy = CollisionSuffix
	}

	s := &cfg.Store
	s.Driver = normalizeEnum(storeDriverNormalizer, s.Driver)
	if s.Driver == "" {
		s.Driver = StoreDriverSQLite
	}
	if s.DSN == "" && s.Driver == StoreDriverSQLite {
		s.DSN = "./autobuilder.db"
	}
	if s.MaxConns == 0 {
		s.MaxConns = 4
	}

	if cfg.Events.Path == "" {
		cfg.Events.Path = "./autobuilder-events.db"
	}
	if cfg.NATS.Subject == "" {
		cfg.NATS.Subject = DefaultNATSSubject
	}

	m := &cfg.Mirror
	if m.Region == "" {
		m.Region = "us-east-1"
	}
	if mode := NormalizeRetryBackoff(string(m.RetryBackoff)); mode != "" {
		m.RetryBackoff = mode
	} else if m.RetryBackoff == "" {
		m.RetryBackoff = RetryBackoffLinear
	}
	if m.RetryInitialDelay == "" {
		m.RetryInitialDelay = "1s"
	}
	if m.RetryMaxDelay == "" {
		m.RetryMaxDelay = "30s"
	}

	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = DefaultHTTPAddr
	}

	cfg.Logging.Level = normalizeEnum(logLevelNormalizer, cfg.Logging.Level)
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	cfg.Logging.Format = normalizeEnum(logFormatNormalizer, cfg.Logging.Format)
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
}
