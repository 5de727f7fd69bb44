package config

import (
	"fmt"
	"os"
)

const exampleConfig = `# autobuilder configuration
export:
  bundle_dir: ./exports
  ttl: 1h
  sweep_interval: 60s
  compression_level: 9
  collision_policy: suffix

store:
  driver: sqlite
  dsn: ./autobuilder.db
  # driver: postgres
  # dsn: ${DATABASE_URL}

events:
  enabled: true
  path: ./autobuilder-events.db

nats:
  enabled: false
  url: nats://127.0.0.1:4222
  subject: autobuilder.exports

mirror:
  enabled: false
  endpoint: localhost:9000
  access_key: ${MINIO_ACCESS_KEY}
  secret_key: ${MINIO_SECRET_KEY}
  bucket: exports
  prefix: static
  retry_backoff: linear
  max_retries: 2

http:
  addr: ":8080"

metrics:
  enabled: true

logging:
  level: info
  format: text
`

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
