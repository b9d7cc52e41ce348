package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	tests := []struct {
		name  string
		check func(*Config) bool
	}{
		{"default socket dir", func(c *Config) bool { return c.SocketDir == "/tmp/dapr-components-sockets" }},
		{"default component name", func(c *Config) bool { return c.ComponentName == "tenant-postgresql" }},
		{"default ops port", func(c *Config) bool { return c.OpsPort == 8081 }},
		{"default log level", func(c *Config) bool { return c.LogLevel == "info" }},
		{"default log format", func(c *Config) bool { return c.LogFormat == "json" }},
		{"default janitor interval", func(c *Config) bool { return c.JanitorInterval == 5*time.Second }},
			{"default metadata migrations dir", func(c *Config) bool { return c.MigrationsMetadataDir == "migrations/metadata" }},
		{"socket path joins dir and component", func(c *Config) bool {
			return c.SocketPath() == "/tmp/dapr-components-sockets/tenant-postgresql.sock"
		}},
		{"ops addr format", func(c *Config) bool { return c.OpsAddr() == "0.0.0.0:8081" }},
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(cfg) {
				t.Errorf("unexpected config value for %s", tt.name)
			}
		})
	}
}
