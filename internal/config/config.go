package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Transport names accepted in MCP_TRANSPORT.
const (
	TransportSSE   = "sse"
	TransportStdio = "stdio"
)

// Config holds the gateway configuration. It is built once at startup and
// passed by pointer; nothing mutates it afterwards.
type Config struct {
	// Upstream
	APIKey             string `env:"RANGER_API_KEY,required,notEmpty"`
	SORBaseURL         string `env:"RANGER_SOR_BASE_URL,required,notEmpty"`
	DataBaseURL        string `env:"RANGER_DATA_BASE_URL,required,notEmpty"`
	UpstreamTimeoutSec int    `env:"UPSTREAM_TIMEOUT_SEC" envDefault:"30"`

	// Server
	Transport string `env:"MCP_TRANSPORT" envDefault:"sse"`
	Port      int    `env:"MCP_PORT" envDefault:"8080"`
	TimeoutMS int    `env:"TIMEOUT_MS" envDefault:"35000"`

	// Observability
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	PrometheusPort int    `env:"PROMETHEUS_PORT" envDefault:"9092"`
}

// Timeout returns the per tool call timeout of the HTTP transport.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// UpstreamTimeout returns the deadline applied to every upstream request.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutSec) * time.Second
}

// LoadFromEnv loads configuration from environment variables. When envFile
// names an existing file its variables are loaded first; variables already
// present in the environment take precedence.
func LoadFromEnv(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	opts := env.Options{
		Prefix: "",
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	cfg.SORBaseURL = strings.TrimRight(strings.TrimSpace(cfg.SORBaseURL), "/")
	cfg.DataBaseURL = strings.TrimRight(strings.TrimSpace(cfg.DataBaseURL), "/")

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("api key must not be empty")
	}

	if err := validateBaseURL("sor base url", c.SORBaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("data base url", c.DataBaseURL); err != nil {
		return err
	}

	if c.UpstreamTimeoutSec < 1 {
		return fmt.Errorf("upstream timeout must be at least 1s, got %ds", c.UpstreamTimeoutSec)
	}

	if c.Transport != TransportSSE && c.Transport != TransportStdio {
		return fmt.Errorf("invalid transport: %s", c.Transport)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	if c.TimeoutMS < 1 {
		return fmt.Errorf("timeout must be at least 1ms, got %dms", c.TimeoutMS)
	}

	if c.PrometheusPort < 0 || c.PrometheusPort > 65535 {
		return fmt.Errorf("invalid prometheus port: %d", c.PrometheusPort)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	return nil
}

func validateBaseURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("invalid %s %q: must be an absolute URL", name, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s %q: scheme must be http or https", name, raw)
	}
	return nil
}
