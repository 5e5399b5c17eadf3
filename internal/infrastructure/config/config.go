package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/GriffinCanCode/dicthub/internal/shared/paths"
	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Storage   StorageConfig   `yaml:"storage" toml:"storage"`
	HTTP      HTTPConfig      `yaml:"http" toml:"http"`
	Sandbox   SandboxConfig   `yaml:"sandbox" toml:"sandbox"`
	Host      HostConfig      `yaml:"host" toml:"host"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string   `envconfig:"DICTHUB_PORT" yaml:"port" toml:"port"`
	Host           string   `envconfig:"DICTHUB_HOST" yaml:"host" toml:"host"`
	AllowedOrigins []string `envconfig:"DICTHUB_ALLOWED_ORIGINS" yaml:"allowed_origins" toml:"allowed_origins"`
}

// StorageConfig selects the key-value store backing preferences and plugin caches.
type StorageConfig struct {
	Driver   string `envconfig:"DICTHUB_STORAGE_DRIVER" yaml:"driver" toml:"driver"` // "memory" or "sqlite"
	Path     string `envconfig:"DICTHUB_STORAGE_PATH" yaml:"path" toml:"path"`
	Compress bool   `envconfig:"DICTHUB_STORAGE_COMPRESS" yaml:"compress" toml:"compress"`
}

// HTTPConfig holds outbound HTTP client configuration.
type HTTPConfig struct {
	Timeout   Duration `envconfig:"DICTHUB_HTTP_TIMEOUT" yaml:"timeout" toml:"timeout"`
	Retries   int      `envconfig:"DICTHUB_HTTP_RETRIES" yaml:"retries" toml:"retries"`
	RateLimit float64  `envconfig:"DICTHUB_HTTP_RPS" yaml:"rate_limit" toml:"rate_limit"`
	UserAgent string   `envconfig:"DICTHUB_HTTP_USER_AGENT" yaml:"user_agent" toml:"user_agent"`
}

// SandboxConfig holds plugin runtime configuration.
type SandboxConfig struct {
	ScriptTimeout Duration `envconfig:"DICTHUB_SCRIPT_TIMEOUT" yaml:"script_timeout" toml:"script_timeout"`
	EnableConsole bool     `envconfig:"DICTHUB_SCRIPT_CONSOLE" yaml:"enable_console" toml:"enable_console"`
}

// HostConfig holds translation host behaviour.
type HostConfig struct {
	PluginCheckInterval    Duration `envconfig:"DICTHUB_PLUGIN_CHECK_INTERVAL" yaml:"plugin_check_interval" toml:"plugin_check_interval"`
	ExtensionCheckInterval Duration `envconfig:"DICTHUB_VERSION_CHECK_INTERVAL" yaml:"extension_check_interval" toml:"extension_check_interval"`
	DiscardStaleResults    bool     `envconfig:"DICTHUB_DISCARD_STALE" yaml:"discard_stale_results" toml:"discard_stale_results"`
	Version                string   `envconfig:"DICTHUB_VERSION" yaml:"version" toml:"version"`
	Channel                string   `envconfig:"DICTHUB_CHANNEL" yaml:"channel" toml:"channel"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"DICTHUB_LOG_LEVEL" yaml:"level" toml:"level"`
	Development bool   `envconfig:"DICTHUB_LOG_DEV" yaml:"development" toml:"development"`
}

// RateLimitConfig holds inbound rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"DICTHUB_RATE_LIMIT_RPS" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int  `envconfig:"DICTHUB_RATE_LIMIT_BURST" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"DICTHUB_RATE_LIMIT_ENABLED" yaml:"enabled" toml:"enabled"`
}

// Duration is a time.Duration that decodes from strings like "24h" in env vars, YAML and TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Load loads configuration from environment variables on top of the defaults.
func Load() (*Config, error) {
	cfg := Default()
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// LoadFile overlays a YAML or TOML file on the defaults, then applies environment variables.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			Host:           "127.0.0.1",
			AllowedOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			Driver:   "sqlite",
			Path:     paths.Database(),
			Compress: true,
		},
		HTTP: HTTPConfig{
			Timeout:   Duration{30 * time.Second},
			Retries:   2,
			RateLimit: 0,
			UserAgent: "DictHub/1.0",
		},
		Sandbox: SandboxConfig{
			ScriptTimeout: Duration{5 * time.Second},
			EnableConsole: true,
		},
		Host: HostConfig{
			PluginCheckInterval:    Duration{24 * time.Hour},
			ExtensionCheckInterval: Duration{24 * time.Hour},
			DiscardStaleResults:    false,
			Version:                "1.0.0",
			Channel:                "chrome",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
	}
}
