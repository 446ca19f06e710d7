package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the interactive form looks for its config file.
const DefaultPath = ".konsilium/config.yaml"

// ErrMissingURL is returned by Validate when no endpoint URL is configured.
var ErrMissingURL = errors.New("endpoint URL not configured (set endpoint.url or KONSILIUM_REQUEST_URL)")

// Config holds all Konsilium configuration.
type Config struct {
	// Generation endpoint
	Endpoint EndpointConfig `yaml:"endpoint"`

	// Terminal UI
	UI UIConfig `yaml:"ui"`

	// Diagnostic logging
	Logging LoggingConfig `yaml:"logging"`
}

// EndpointConfig configures the remote generation endpoint.
type EndpointConfig struct {
	URL            string `yaml:"url"`
	RequestTimeout string `yaml:"request_timeout"` // empty = wait forever
	ProxyURL       string `yaml:"proxy_url"`
}

// DefaultConfig returns the default configuration.
// The endpoint URL is deliberately empty: it has to come from the file or
// the environment.
func DefaultConfig() *Config {
	return &Config{
		UI: UIConfig{
			Theme:          ThemeAuto,
			RenderMarkdown: false,
		},
		Logging: LoggingConfig{
			Level:      "info",
			JSONFormat: true,
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file is not an error; defaults plus environment overrides apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// requestURLEnvVars are checked in order; the first non-empty one wins.
// VITE_REQUEST_URL keeps deployments of the old web front-end working.
var requestURLEnvVars = []string{"KONSILIUM_REQUEST_URL", "REQUEST_URL", "VITE_REQUEST_URL"}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	for _, name := range requestURLEnvVars {
		if v := os.Getenv(name); v != "" {
			c.Endpoint.URL = v
			break
		}
	}

	if v := os.Getenv("KONSILIUM_REQUEST_TIMEOUT"); v != "" {
		c.Endpoint.RequestTimeout = v
	}
	if v := os.Getenv("KONSILIUM_PROXY_URL"); v != "" {
		c.Endpoint.ProxyURL = v
	}

	if os.Getenv("KONSILIUM_DARK_MODE") == "1" {
		c.UI.Theme = ThemeDark
	}

	if os.Getenv("KONSILIUM_DEBUG") == "1" {
		c.Logging.DebugMode = true
	}
}

// GetRequestTimeout returns the request timeout; zero means no timeout.
func (c *Config) GetRequestTimeout() time.Duration {
	if c.Endpoint.RequestTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Endpoint.RequestTimeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Endpoint.URL == "" {
		return ErrMissingURL
	}

	u, err := url.Parse(c.Endpoint.URL)
	if err != nil {
		return fmt.Errorf("invalid endpoint URL %q: %w", c.Endpoint.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid endpoint URL %q: scheme must be http or https", c.Endpoint.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid endpoint URL %q: missing host", c.Endpoint.URL)
	}

	if c.Endpoint.RequestTimeout != "" {
		if _, err := time.ParseDuration(c.Endpoint.RequestTimeout); err != nil {
			return fmt.Errorf("invalid request_timeout %q: %w", c.Endpoint.RequestTimeout, err)
		}
	}

	if c.Endpoint.ProxyURL != "" {
		if _, err := url.Parse(c.Endpoint.ProxyURL); err != nil {
			return fmt.Errorf("invalid proxy_url %q: %w", c.Endpoint.ProxyURL, err)
		}
	}

	switch c.UI.Theme {
	case "", ThemeAuto, ThemeLight, ThemeDark:
	default:
		return fmt.Errorf("invalid ui.theme: %s (valid: %v)", c.UI.Theme, ValidThemes)
	}

	return nil
}
