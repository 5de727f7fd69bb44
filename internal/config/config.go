// Package config loads and validates the autobuilder YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Store   StoreConfig   `yaml:"store"`
	Events  EventsConfig  `yaml:"events"`
	NATS    NATSConfig    `yaml:"nats"`
	Mirror  MirrorConfig  `yaml:"mirror"`
	HTTP    HTTPConfig    `yaml:"http"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// ExportConfig controls the export pipeline and the job registry.
type ExportConfig struct {
	BundleDir        string          `yaml:"bundle_dir"`
	ScratchDir       string          `yaml:"scratch_dir,omitempty"`
	TTL              string          `yaml:"ttl"`
	SweepInterval    string          `yaml:"sweep_interval"`
	CompressionLevel int             `yaml:"compression_level"`
	CollisionPolicy  CollisionPolicy `yaml:"collision_policy"`
}

// StoreConfig selects the build data store.
type StoreConfig struct {
	Driver   StoreDriver `yaml:"driver"`
	DSN      string      `yaml:"dsn"`
	MaxConns int         `yaml:"max_conns,omitempty"` // postgres pool size
}

// EventsConfig controls the persisted export event history.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// NATSConfig controls publishing of export lifecycle events.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// MirrorConfig controls uploading finished bundles to S3-compatible storage.
type MirrorConfig struct {
	Enabled           bool             `yaml:"enabled"`
	Endpoint          string           `yaml:"endpoint"`
	AccessKey         string           `yaml:"access_key"`
	SecretKey         string           `yaml:"secret_key"`
	Region            string           `yaml:"region"`
	UseSSL            bool             `yaml:"use_ssl"`
	Bucket            string           `yaml:"bucket"`
	Prefix            string           `yaml:"prefix,omitempty"`
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff"`
	RetryInitialDelay string           `yaml:"retry_initial_delay"`
	RetryMaxDelay     string           `yaml:"retry_max_delay"`
	MaxRetries        int              `yaml:"max_retries"`
}

// HTTPConfig controls the API/download server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig controls the default slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load loads configuration from the specified file. Environment variables
// (including those from .env files) are expanded in the YAML content before
// decoding; defaults are applied and the result is validated.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration populated only with defaults.
func Default() *Config {
	cfg := &Config{
		Events:  EventsConfig{Enabled: true},
		Metrics: MetricsConfig{Enabled: true},
	}
	applyDefaults(cfg)
	return cfg
}

// TTLDuration returns the parsed registry TTL.
func (e ExportConfig) TTLDuration() time.Duration {
	return mustDuration(e.TTL, DefaultExportTTL)
}

// SweepIntervalDuration returns the parsed sweep interval.
func (e ExportConfig) SweepIntervalDuration() time.Duration {
	return mustDuration(e.SweepInterval, DefaultSweepInterval)
}

// Durations were validated on load; fall back for hand-built configs.
func mustDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
