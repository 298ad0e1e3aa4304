package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/drblury/bedrock/router"
	"github.com/drblury/bedrock/transport"
)

// Environment variables read by the CLI. They override the configuration
// file and are overridden by flags.
const (
	EnvConfig      = "BEDROCK_CONFIG"
	EnvContextPath = "BEDROCK_CONTEXT_PATH"
	EnvTimeout     = "BEDROCK_TIMEOUT"
	EnvLogLevel    = "BEDROCK_LOG_LEVEL"
	EnvLogFormat   = "BEDROCK_LOG_FORMAT"
)

// DefaultContextPath is used when no context path is configured.
const DefaultContextPath = "http://localhost:8080/"

// Config holds the settings shared by every command.
type Config struct {
	ContextPath string        `yaml:"contextPath"`
	Timeout     time.Duration `yaml:"timeout"`
	Log         LogConfig     `yaml:"log"`
	Serve       ServeConfig   `yaml:"serve"`
}

// LogConfig selects the level and format of the CLI's logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServeConfig configures the docs server.
type ServeConfig struct {
	Addr      string        `yaml:"addr"`
	BaseURL   string        `yaml:"baseUrl"`
	ProbeURLs []string      `yaml:"probeUrls"`
	Router    router.Config `yaml:"router"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		ContextPath: DefaultContextPath,
		Timeout:     transport.DefaultTimeout,
		Log: LogConfig{
			Level:  "info",
			Format: string(FormatText),
		},
		Serve: ServeConfig{
			Addr:   ":8090",
			Router: defaultRouterConfig(),
		},
	}
}

func defaultRouterConfig() router.Config {
	cfg := router.DefaultConfig()
	cfg.QuietdownRoutes = []string{"/healthz", "/readyz"}
	return cfg
}

// LoadConfigFile reads a YAML configuration file. Keys missing from the file
// keep their defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{
			Path:    path,
			Message: err.Error(),
		}
	}
	return &cfg, nil
}

// ConfigError reports an unreadable configuration value.
type ConfigError struct {
	Path    string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Path + ": " + e.Message
}

// applyEnv overlays the BEDROCK_* environment variables onto cfg.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvContextPath); ok && v != "" {
		cfg.ContextPath = v
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return &ConfigError{Path: EnvTimeout, Message: err.Error()}
		}
		cfg.Timeout = timeout
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		cfg.Log.Format = v
	}
	return nil
}

// normalizeContextPath appends the trailing slash the endpoint is joined to.
func normalizeContextPath(contextPath string) string {
	if contextPath == "" || strings.HasSuffix(contextPath, "/") {
		return contextPath
	}
	return contextPath + "/"
}

func (c Config) validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.ContextPath == "" {
		return fmt.Errorf("context path is required")
	}
	return nil
}
