// Package config loads configuration from the environment, optionally
// overlaid with a YAML file for the client agent.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds configuration for all popgate binaries. Each binary reads the
// sections it needs.
type Config struct {
	Relay     RelayConfig
	Gate      GateConfig
	Chat      ChatConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// RelayConfig holds relay server and client connection configuration.
type RelayConfig struct {
	Host string `envconfig:"RELAY_HOST" default:"0.0.0.0" yaml:"host"`
	Port string `envconfig:"RELAY_PORT" default:"8900" yaml:"port"`
	// URL is the websocket endpoint the client agent dials.
	URL string `envconfig:"RELAY_URL" default:"ws://localhost:8900/ws" yaml:"url"`
}

// GateConfig holds navigation gate configuration for the client agent.
type GateConfig struct {
	// Driver selects the window driver: "rod" (CDP-controlled browser,
	// retargetable) or "exec" (system opener, fire-and-forget).
	Driver string `envconfig:"GATE_DRIVER" default:"rod" yaml:"driver"`
	// ControlURL is an existing DevTools endpoint. Empty means launch a
	// browser via the rod launcher.
	ControlURL string `envconfig:"GATE_CONTROL_URL" default:"" yaml:"control_url"`
	// Headless runs the launched browser without a visible window. Only
	// useful for tests; a headless "window" defeats the point otherwise.
	Headless bool `envconfig:"GATE_HEADLESS" default:"false" yaml:"headless"`
}

// ChatConfig holds chat-completion endpoint configuration for the ask CLI.
type ChatConfig struct {
	BaseURL string `envconfig:"CHAT_BASE_URL" default:"https://api.openai.com" yaml:"base_url"`
	APIKey  string `envconfig:"OPENAI_API_KEY" default:"" yaml:"api_key"`
	Model   string `envconfig:"CHAT_MODEL" default:"gpt-4o-mini" yaml:"model"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development"`
}

// RateLimitConfig holds relay rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"50" yaml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"100" yaml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
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
		Relay: RelayConfig{
			Host: "0.0.0.0",
			Port: "8900",
			URL:  "ws://localhost:8900/ws",
		},
		Gate: GateConfig{
			Driver: "rod",
		},
		Chat: ChatConfig{
			BaseURL: "https://api.openai.com",
			Model:   "gpt-4o-mini",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
			Enabled:           true,
		},
	}
}
