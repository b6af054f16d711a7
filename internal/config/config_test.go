package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejectsBrokenConfigs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing database", func(c *Config) { c.Database = nil }},
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"zero database timeout", func(c *Config) { c.Database.Timeout = 0 }},
		{"missing http", func(c *Config) { c.HTTP = nil }},
		{"port too low", func(c *Config) { c.HTTP.Port = 0 }},
		{"port too high", func(c *Config) { c.HTTP.Port = 70000 }},
		{"empty host", func(c *Config) { c.HTTP.Host = "" }},
		{"negative http timeout", func(c *Config) { c.HTTP.ReadTimeout = -time.Second }},
		{"missing websocket", func(c *Config) { c.WebSocket = nil }},
		{"zero ping interval", func(c *Config) { c.WebSocket.PingInterval = 0 }},
		{"zero buffer size", func(c *Config) { c.WebSocket.BufferSize = 0 }},
		{"zero max message size", func(c *Config) { c.WebSocket.MaxMessageSize = 0 }},
		{"missing auth", func(c *Config) { c.Auth = nil }},
		{"empty secret", func(c *Config) { c.Auth.Secret = "" }},
		{"zero token ttl", func(c *Config) { c.Auth.TokenTTL = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted a broken config")
			}
		})
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("CLASSBOARD_HTTP_PORT", "9090")
	t.Setenv("CLASSBOARD_DATABASE_PATH", "/tmp/env.db")
	t.Setenv("CLASSBOARD_WEBSOCKET_PING_INTERVAL", "15s")
	t.Setenv("CLASSBOARD_WEBSOCKET_FRAMES_PER_MINUTE", "25")
	t.Setenv("CLASSBOARD_AUTH_SECRET", "env-secret")

	cfg := LoadFromEnv()

	if cfg.HTTP.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.HTTP.Port)
	}
	if cfg.Database.Path != "/tmp/env.db" {
		t.Errorf("Path = %q, want /tmp/env.db", cfg.Database.Path)
	}
	if cfg.WebSocket.PingInterval != 15*time.Second {
		t.Errorf("PingInterval = %v, want 15s", cfg.WebSocket.PingInterval)
	}
	if cfg.WebSocket.FramesPerMinute != 25 {
		t.Errorf("FramesPerMinute = %d, want 25", cfg.WebSocket.FramesPerMinute)
	}
	if cfg.Auth.Secret != "env-secret" {
		t.Errorf("Secret = %q, want env-secret", cfg.Auth.Secret)
	}
}

func TestLoadFromEnvIgnoresUnparseableValues(t *testing.T) {
	t.Setenv("CLASSBOARD_HTTP_PORT", "not-a-number")
	t.Setenv("CLASSBOARD_WEBSOCKET_READ_TIMEOUT", "soon")

	cfg := LoadFromEnv()
	defaults := DefaultConfig()

	if cfg.HTTP.Port != defaults.HTTP.Port {
		t.Errorf("Port = %d, want default %d", cfg.HTTP.Port, defaults.HTTP.Port)
	}
	if cfg.WebSocket.ReadTimeout != defaults.WebSocket.ReadTimeout {
		t.Errorf("ReadTimeout = %v, want default %v", cfg.WebSocket.ReadTimeout, defaults.WebSocket.ReadTimeout)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `{
		"http": {"port": 9191, "read_timeout": "45s"},
		"database": {"path": "/tmp/file.db"},
		"websocket": {"buffer_size": 256, "ping_interval": "20s"},
		"auth": {"secret": "file-secret", "token_ttl": "2h"}
	}`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.HTTP.Port != 9191 {
		t.Errorf("Port = %d, want 9191", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeout != 45*time.Second {
		t.Errorf("ReadTimeout = %v, want 45s", cfg.HTTP.ReadTimeout)
	}
	if cfg.Database.Path != "/tmp/file.db" {
		t.Errorf("Path = %q, want /tmp/file.db", cfg.Database.Path)
	}
	if cfg.WebSocket.BufferSize != 256 {
		t.Errorf("BufferSize = %d, want 256", cfg.WebSocket.BufferSize)
	}
	if cfg.Auth.TokenTTL != 2*time.Hour {
		t.Errorf("TokenTTL = %v, want 2h", cfg.Auth.TokenTTL)
	}
	// Untouched sections keep their defaults.
	if cfg.HTTP.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want default", cfg.HTTP.Host)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file must be an error")
	}

	path := writeConfigFile(t, `{broken`)
	if _, err := LoadFromFile(path); err == nil {
		t.Error("malformed JSON must be an error")
	}
}

func TestLoadPrecedenceFileOverEnv(t *testing.T) {
	t.Setenv("CLASSBOARD_HTTP_PORT", "9090")
	path := writeConfigFile(t, `{"http": {"port": 9191}}`)

	cfg := Load(path)
	if cfg.HTTP.Port != 9191 {
		t.Errorf("Port = %d, want file value 9191", cfg.HTTP.Port)
	}
}

func TestLoadFallsBackWhenFileMissing(t *testing.T) {
	t.Setenv("CLASSBOARD_HTTP_PORT", "9090")

	cfg := Load(filepath.Join(t.TempDir(), "missing.json"))
	if cfg.HTTP.Port != 9090 {
		t.Errorf("Port = %d, want env value 9090", cfg.HTTP.Port)
	}
}
