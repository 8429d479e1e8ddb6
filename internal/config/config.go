// Package config loads DIY Bot settings: defaults, then an optional YAML
// file, then DIYBOT_* environment variables. Command-line flags are applied
// last by the caller.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvOllamaURL   = "DIYBOT_OLLAMA_URL"
	EnvOllamaModel = "DIYBOT_OLLAMA_MODEL"
	EnvAddr        = "DIYBOT_ADDR"
	EnvLogLevel    = "DIYBOT_LOG_LEVEL"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Ollama    OllamaConfig    `yaml:"ollama"`
	Inventory InventoryConfig `yaml:"inventory"`
	Journal   JournalConfig   `yaml:"journal"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the HTTP/WebSocket adapter.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// OllamaConfig configures the model server connection.
type OllamaConfig struct {
	URL     string        `yaml:"url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// InventoryConfig controls startup state.
type InventoryConfig struct {
	SeedDefaults bool `yaml:"seed_defaults"`
}

// JournalConfig bounds the in-memory transcripts.
type JournalConfig struct {
	MaxTurns         int `yaml:"max_turns"`
	MaxContentLength int `yaml:"max_content_length"`
	HistoryLimit     int `yaml:"history_limit"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			AllowedOrigins:  []string{"http://localhost:5173"},
			ShutdownTimeout: 10 * time.Second,
		},
		Ollama: OllamaConfig{
			URL:     "http://localhost:11434",
			Model:   "mistral:instruct",
			Timeout: 120 * time.Second,
		},
		Inventory: InventoryConfig{SeedDefaults: true},
		Journal: JournalConfig{
			MaxTurns:         40,
			MaxContentLength: 4000,
			HistoryLimit:     20,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvOllamaURL); v != "" {
		c.Ollama.URL = v
	}
	if v := os.Getenv(EnvOllamaModel); v != "" {
		c.Ollama.Model = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Ollama.URL) == "" {
		return fmt.Errorf("ollama.url is required")
	}
	u, err := url.Parse(c.Ollama.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("ollama.url %q must be an http(s) URL", c.Ollama.URL)
	}
	if strings.TrimSpace(c.Ollama.Model) == "" {
		return fmt.Errorf("ollama.model is required")
	}
	if c.Ollama.Timeout <= 0 {
		return fmt.Errorf("ollama.timeout must be positive, got %s", c.Ollama.Timeout)
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}
	if c.Journal.MaxTurns <= 0 || c.Journal.MaxContentLength <= 0 || c.Journal.HistoryLimit <= 0 {
		return fmt.Errorf("journal limits must be positive: %+v", c.Journal)
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid logging.level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}
	if f := c.Logging.Format; f != "json" && f != "console" {
		return fmt.Errorf("invalid logging.format: %s (valid: json, console)", f)
	}
	return nil
}
