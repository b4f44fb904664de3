package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// LoadFile loads configuration from the environment and overlays values from
// a YAML file. File values win over environment values; missing file is an
// error, callers decide whether the file is optional.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var overlay fileConfig
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	overlay.apply(cfg)
	return cfg, nil
}

// fileConfig mirrors Config with pointer fields so only keys present in the
// file override the environment.
type fileConfig struct {
	Relay struct {
		Host *string `yaml:"host"`
		Port *string `yaml:"port"`
		URL  *string `yaml:"url"`
	} `yaml:"relay"`
	Gate struct {
		Driver     *string `yaml:"driver"`
		ControlURL *string `yaml:"control_url"`
		Headless   *bool   `yaml:"headless"`
	} `yaml:"gate"`
	Chat struct {
		BaseURL *string `yaml:"base_url"`
		APIKey  *string `yaml:"api_key"`
		Model   *string `yaml:"model"`
	} `yaml:"chat"`
	Logging struct {
		Level       *string `yaml:"level"`
		Development *bool   `yaml:"development"`
	} `yaml:"logging"`
}

func (f *fileConfig) apply(cfg *Config) {
	setString(&cfg.Relay.Host, f.Relay.Host)
	setString(&cfg.Relay.Port, f.Relay.Port)
	setString(&cfg.Relay.URL, f.Relay.URL)
	setString(&cfg.Gate.Driver, f.Gate.Driver)
	setString(&cfg.Gate.ControlURL, f.Gate.ControlURL)
	setBool(&cfg.Gate.Headless, f.Gate.Headless)
	setString(&cfg.Chat.BaseURL, f.Chat.BaseURL)
	setString(&cfg.Chat.APIKey, f.Chat.APIKey)
	setString(&cfg.Chat.Model, f.Chat.Model)
	setString(&cfg.Logging.Level, f.Logging.Level)
	setBool(&cfg.Logging.Development, f.Logging.Development)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
