// Package config loads the process configuration: a yaml file with
// defaults, an optional .env file, and environment variable overrides.
// The resulting struct is passed by injection; nothing in this package
// holds ambient state.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"anybridge/pkg/logging"
)

const (
	userConfigDir  = ".config/anybridge"
	configFileName = "config.yaml"
)

// Config is the top-level configuration.
type Config struct {
	Upstream UpstreamConfig `yaml:"upstream"`
	REST     RESTConfig     `yaml:"rest"`
	MCP      MCPConfig      `yaml:"mcp"`
	LogLevel string         `yaml:"logLevel,omitempty"`
}

// UpstreamConfig points at the note application's local API.
type UpstreamConfig struct {
	BaseURL string `yaml:"baseUrl,omitempty"` // default: http://localhost:31009
	APIKey  string `yaml:"apiKey,omitempty"`  // process-level bearer fallback
	AppName string `yaml:"appName,omitempty"` // name shown during the challenge pairing
}

// RESTConfig configures the REST front door.
type RESTConfig struct {
	Host           string   `yaml:"host,omitempty"` // default: localhost
	Port           int      `yaml:"port,omitempty"` // default: 8091
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
	// RateLimit is the per-client requests-per-second ceiling.
	// Zero disables rate limiting.
	RateLimit float64 `yaml:"rateLimit,omitempty"`
}

// MCPConfig configures the MCP front door.
type MCPConfig struct {
	ServerName string `yaml:"serverName,omitempty"` // default: anybridge
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Upstream: UpstreamConfig{
			BaseURL: "http://localhost:31009",
			AppName: "anybridge",
		},
		REST: RESTConfig{
			Host:      "localhost",
			Port:      8091,
			RateLimit: 10,
		},
		MCP: MCPConfig{
			ServerName: "anybridge",
		},
		LogLevel: "info",
	}
}

// DefaultConfigPath returns the user config directory.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// Load reads config.yaml from configPath on top of the defaults, then
// applies a .env file from the working directory and environment
// variable overrides, in that order. A missing config.yaml or .env is
// not an error.
func Load(configPath string) (Config, error) {
	cfg := Default()

	configFilePath := filepath.Join(configPath, configFileName)
	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Info("Config", "no config.yaml at %s, using defaults", configFilePath)
	case err != nil:
		return Config{}, fmt.Errorf("read config from %s: %w", configFilePath, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config from %s: %w", configFilePath, err)
		}
		logging.Info("Config", "loaded configuration from %s", configFilePath)
	}

	// .env is optional; it only seeds the environment, the overrides
	// below read os.Getenv either way.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Debug("Config", "no .env file loaded: %v", err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ANYTYPE_API_URL"); v != "" {
		cfg.Upstream.BaseURL = v
	}
	if v := os.Getenv("ANYTYPE_API_KEY"); v != "" {
		cfg.Upstream.APIKey = v
	}
	if v := os.Getenv("ANYTYPE_APP_NAME"); v != "" {
		cfg.Upstream.AppName = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.REST.Port = port
		} else {
			logging.Warn("Config", "ignoring non-numeric PORT value %q", v)
		}
	}
}

func (c Config) validate() error {
	if c.Upstream.BaseURL == "" {
		return errors.New("upstream base URL must not be empty")
	}
	if c.REST.Port <= 0 || c.REST.Port > 65535 {
		return fmt.Errorf("invalid REST port %d", c.REST.Port)
	}
	return nil
}
