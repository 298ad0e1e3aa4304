package router

import (
	"net/http"
	"slices"
	"time"
)

// Defaults applied by New unless WithConfig replaces them.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = 1 << 20
)

// Config holds the tunables of the default middleware chain.
type Config struct {
	// Timeout bounds each request. Zero disables the timeout middleware.
	Timeout time.Duration `yaml:"timeout"`
	// MaxBodyBytes caps request bodies. Zero disables the limit.
	MaxBodyBytes int64 `yaml:"maxBodyBytes"`
	// QuietdownRoutes lists paths the logging middleware skips, such as probes.
	QuietdownRoutes []string `yaml:"quietdownRoutes"`
	// HideHeaders lists request headers whose values are redacted in logs.
	HideHeaders []string   `yaml:"hideHeaders"`
	CORS        CORSConfig `yaml:"cors"`
}

// DefaultConfig returns the configuration New starts from.
func DefaultConfig() Config {
	return Config{
		Timeout:      DefaultTimeout,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// CORSConfig enables the CORS middleware when Origins is non-empty. The origin
// "*" allows every caller.
type CORSConfig struct {
	Origins          []string `yaml:"origins"`
	Methods          []string `yaml:"methods"`
	Headers          []string `yaml:"headers"`
	AllowCredentials bool     `yaml:"allowCredentials"`
}

// OpenCORS allows any origin to GET and POST with any header, matching what
// Bedrock services answer browsers with.
func OpenCORS() CORSConfig {
	return CORSConfig{
		Origins: []string{"*"},
		Methods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		Headers: []string{"*"},
	}
}

func (c Config) clone() Config {
	c.QuietdownRoutes = slices.Clone(c.QuietdownRoutes)
	c.HideHeaders = slices.Clone(c.HideHeaders)
	c.CORS.Origins = slices.Clone(c.CORS.Origins)
	c.CORS.Methods = slices.Clone(c.CORS.Methods)
	c.CORS.Headers = slices.Clone(c.CORS.Headers)
	return c
}
