// Package config loads the process-level ambient configuration: how the
// component itself is wired (socket directory, ops listener, janitor
// cadence). This is distinct from the per-component configuration the
// sidecar delivers through Init.properties — see internal/routing for that.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds process-level configuration, loaded from environment
// variables per the sidecar pluggable-component convention.
type Config struct {
	// SocketDir is the directory the sidecar expects pluggable component
	// Unix domain sockets to live in. The component listens on
	// <SocketDir>/<ComponentName>.sock.
	SocketDir     string `env:"DAPR_COMPONENT_SOCKETS_FOLDER" envDefault:"/tmp/dapr-components-sockets"`
	ComponentName string `env:"STATESTORE_COMPONENT_NAME" envDefault:"tenant-postgresql"`

	// Ops-plane HTTP (health + metrics), separate from the gRPC data plane.
	OpsHost string `env:"STATESTORE_OPS_HOST" envDefault:"0.0.0.0"`
	OpsPort int    `env:"STATESTORE_OPS_PORT" envDefault:"8081"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Telemetry
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// Migrations
	MigrationsMetadataDir string `env:"MIGRATIONS_METADATA_DIR" envDefault:"migrations/metadata"`

	// TTL janitor
	JanitorInterval time.Duration `env:"STATESTORE_JANITOR_INTERVAL" envDefault:"5s"`

	// Optional distributed tick-lock for the janitor when multiple
	// component processes share a database. Empty disables coordination
	// and each process ticks independently (fine for a single replica).
	JanitorLockRedisURL string `env:"STATESTORE_JANITOR_LOCK_REDIS_URL"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config from env: %w", err)
	}
	return cfg, nil
}

// SocketPath returns the full path of the Unix domain socket the gRPC
// server should listen on.
func (c *Config) SocketPath() string {
	return fmt.Sprintf("%s/%s.sock", c.SocketDir, c.ComponentName)
}

// OpsAddr returns the address the ops-plane HTTP server should listen on.
func (c *Config) OpsAddr() string {
	return fmt.Sprintf("%s:%d", c.OpsHost, c.OpsPort)
}
