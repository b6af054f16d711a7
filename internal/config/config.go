package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the system-wide settings tree, one section per component.
type Config struct {
	Database  *DatabaseConfig  `json:"database"`
	HTTP      *HTTPConfig      `json:"http"`
	WebSocket *WebSocketConfig `json:"websocket"`
	Auth      *AuthConfig      `json:"auth"`
}

type DatabaseConfig struct {
	Path    string        `json:"path"`
	Timeout time.Duration `json:"timeout"`
}

type HTTPConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

type WebSocketConfig struct {
	PingInterval    time.Duration `json:"ping_interval"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	BufferSize      int           `json:"buffer_size"`
	MaxMessageSize  int64         `json:"max_message_size"`
	FramesPerMinute int           `json:"frames_per_minute"`
}

type AuthConfig struct {
	Secret   string        `json:"secret"`
	TokenTTL time.Duration `json:"token_ttl"`
}

// DefaultConfig returns the settings the service runs with when nothing
// overrides them. The auth secret default exists for local development
// only and deployments are expected to override it.
func DefaultConfig() *Config {
	return &Config{
		Database: &DatabaseConfig{
			Path:    "./classboard.db",
			Timeout: 30 * time.Second,
		},
		HTTP: &HTTPConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		WebSocket: &WebSocketConfig{
			PingInterval:    30 * time.Second,
			ReadTimeout:     60 * time.Second,
			WriteTimeout:    10 * time.Second,
			BufferSize:      100,
			MaxMessageSize:  8192,
			FramesPerMinute: 100,
		},
		Auth: &AuthConfig{
			Secret:   "classboard-dev-secret",
			TokenTTL: 24 * time.Hour,
		},
	}
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	if c.Database == nil {
		return fmt.Errorf("database configuration is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.Database.Timeout <= 0 {
		return fmt.Errorf("database timeout must be positive")
	}

	if c.HTTP == nil {
		return fmt.Errorf("HTTP configuration is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP port must be between 1 and 65535")
	}
	if c.HTTP.Host == "" {
		return fmt.Errorf("HTTP host cannot be empty")
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP timeouts must be positive")
	}

	if c.WebSocket == nil {
		return fmt.Errorf("WebSocket configuration is required")
	}
	if c.WebSocket.PingInterval <= 0 {
		return fmt.Errorf("WebSocket ping interval must be positive")
	}
	if c.WebSocket.ReadTimeout <= 0 || c.WebSocket.WriteTimeout <= 0 {
		return fmt.Errorf("WebSocket timeouts must be positive")
	}
	if c.WebSocket.BufferSize <= 0 {
		return fmt.Errorf("WebSocket buffer size must be positive")
	}
	if c.WebSocket.MaxMessageSize <= 0 {
		return fmt.Errorf("WebSocket max message size must be positive")
	}

	if c.Auth == nil {
		return fmt.Errorf("auth configuration is required")
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth secret cannot be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth token TTL must be positive")
	}

	return nil
}

// LoadFromEnv starts from defaults and applies CLASSBOARD_* overrides.
// Unparseable values are ignored in favor of the default.
func LoadFromEnv() *Config {
	config := DefaultConfig()

	if host := os.Getenv("CLASSBOARD_HTTP_HOST"); host != "" {
		config.HTTP.Host = host
	}
	if port := os.Getenv("CLASSBOARD_HTTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.HTTP.Port = p
		}
	}
	if timeout := os.Getenv("CLASSBOARD_HTTP_READ_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.HTTP.ReadTimeout = d
		}
	}
	if timeout := os.Getenv("CLASSBOARD_HTTP_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.HTTP.WriteTimeout = d
		}
	}

	if path := os.Getenv("CLASSBOARD_DATABASE_PATH"); path != "" {
		config.Database.Path = path
	}
	if timeout := os.Getenv("CLASSBOARD_DATABASE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Database.Timeout = d
		}
	}

	if interval := os.Getenv("CLASSBOARD_WEBSOCKET_PING_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.WebSocket.PingInterval = d
		}
	}
	if timeout := os.Getenv("CLASSBOARD_WEBSOCKET_READ_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.WebSocket.ReadTimeout = d
		}
	}
	if timeout := os.Getenv("CLASSBOARD_WEBSOCKET_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.WebSocket.WriteTimeout = d
		}
	}
	if size := os.Getenv("CLASSBOARD_WEBSOCKET_BUFFER_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil {
			config.WebSocket.BufferSize = n
		}
	}
	if limit := os.Getenv("CLASSBOARD_WEBSOCKET_FRAMES_PER_MINUTE"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			config.WebSocket.FramesPerMinute = n
		}
	}

	if secret := os.Getenv("CLASSBOARD_AUTH_SECRET"); secret != "" {
		config.Auth.Secret = secret
	}
	if ttl := os.Getenv("CLASSBOARD_AUTH_TOKEN_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.Auth.TokenTTL = d
		}
	}

	return config
}

// configFile mirrors Config for JSON parsing, with durations as strings.
type configFile struct {
	Database *struct {
		Path    string `json:"path"`
		Timeout string `json:"timeout"`
	} `json:"database"`
	HTTP *struct {
		Host         string `json:"host"`
		Port         int    `json:"port"`
		ReadTimeout  string `json:"read_timeout"`
		WriteTimeout string `json:"write_timeout"`
	} `json:"http"`
	WebSocket *struct {
		PingInterval    string `json:"ping_interval"`
		ReadTimeout     string `json:"read_timeout"`
		WriteTimeout    string `json:"write_timeout"`
		BufferSize      int    `json:"buffer_size"`
		MaxMessageSize  int64  `json:"max_message_size"`
		FramesPerMinute int    `json:"frames_per_minute"`
	} `json:"websocket"`
	Auth *struct {
		Secret   string `json:"secret"`
		TokenTTL string `json:"token_ttl"`
	} `json:"auth"`
}

// LoadFromFile reads a JSON config file over the defaults.
func LoadFromFile(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filepath, err)
	}

	var file configFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filepath, err)
	}

	config := DefaultConfig()

	if file.Database != nil {
		if file.Database.Path != "" {
			config.Database.Path = file.Database.Path
		}
		setDuration(&config.Database.Timeout, file.Database.Timeout)
	}

	if file.HTTP != nil {
		if file.HTTP.Host != "" {
			config.HTTP.Host = file.HTTP.Host
		}
		if file.HTTP.Port > 0 {
			config.HTTP.Port = file.HTTP.Port
		}
		setDuration(&config.HTTP.ReadTimeout, file.HTTP.ReadTimeout)
		setDuration(&config.HTTP.WriteTimeout, file.HTTP.WriteTimeout)
	}

	if file.WebSocket != nil {
		if file.WebSocket.BufferSize > 0 {
			config.WebSocket.BufferSize = file.WebSocket.BufferSize
		}
		if file.WebSocket.MaxMessageSize > 0 {
			config.WebSocket.MaxMessageSize = file.WebSocket.MaxMessageSize
		}
		if file.WebSocket.FramesPerMinute > 0 {
			config.WebSocket.FramesPerMinute = file.WebSocket.FramesPerMinute
		}
		setDuration(&config.WebSocket.PingInterval, file.WebSocket.PingInterval)
		setDuration(&config.WebSocket.ReadTimeout, file.WebSocket.ReadTimeout)
		setDuration(&config.WebSocket.WriteTimeout, file.WebSocket.WriteTimeout)
	}

	if file.Auth != nil {
		if file.Auth.Secret != "" {
			config.Auth.Secret = file.Auth.Secret
		}
		setDuration(&config.Auth.TokenTTL, file.Auth.TokenTTL)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", filepath, err)
	}

	return config, nil
}

func setDuration(dst *time.Duration, raw string) {
	if raw == "" {
		return
	}
	if d, err := time.ParseDuration(raw); err == nil {
		*dst = d
	}
}

// Load resolves configuration with precedence file > environment >
// defaults. A missing or unreadable file falls back silently.
func Load(filepath string) *Config {
	config := LoadFromEnv()

	if filepath != "" {
		if fileConfig, err := LoadFromFile(filepath); err == nil {
			config = fileConfig
		}
	}

	return config
}
