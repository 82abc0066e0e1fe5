// Package config defines the server configuration and its defaults.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
	Dispatch DispatchConfig `yaml:"dispatch" mapstructure:"dispatch"`
	Audit    AuditConfig    `yaml:"audit" mapstructure:"audit"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port" mapstructure:"port"`
	Host         string        `yaml:"host" mapstructure:"host"`
	ReadTimeout  time.Duration `yaml:"readTimeout" mapstructure:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout" mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout" mapstructure:"idleTimeout"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type string `yaml:"type" mapstructure:"type"` // "memory" or "file"
	Path string `yaml:"path" mapstructure:"path"` // Path for file storage
}

// DispatchConfig controls how operations are served
type DispatchConfig struct {
	DemoMode       bool          `yaml:"demoMode" mapstructure:"demoMode"` // Serve forwarding operations as MOCKED
	ForwardTimeout time.Duration `yaml:"forwardTimeout" mapstructure:"forwardTimeout"`
	Breaker        BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
}

// BreakerConfig configures the per-endpoint circuit breakers
type BreakerConfig struct {
	Failures         int           `yaml:"failures" mapstructure:"failures"` // 0 disables the breaker
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`
	HalfOpenRequests int           `yaml:"halfOpenRequests" mapstructure:"halfOpenRequests"`
}

// AuditConfig holds audit trail configuration
type AuditConfig struct {
	MaxEvents  int `yaml:"maxEvents" mapstructure:"maxEvents"`
	BufferSize int `yaml:"bufferSize" mapstructure:"bufferSize"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // "json" or "console"
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 90 * time.Second, // Covers simulated delays and slow upstreams
			IdleTimeout:  60 * time.Second,
		},
		Storage: StorageConfig{
			Type: "memory",
			Path: "./data",
		},
		Dispatch: DispatchConfig{
			DemoMode:       false,
			ForwardTimeout: 30 * time.Second,
			Breaker: BreakerConfig{
				Failures:         5,
				Timeout:          30 * time.Second,
				HalfOpenRequests: 1,
			},
		},
		Audit: AuditConfig{
			MaxEvents:  1000,
			BufferSize: 256,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

// SetDefaults registers the default configuration with viper
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.readTimeout", d.Server.ReadTimeout)
	v.SetDefault("server.writeTimeout", d.Server.WriteTimeout)
	v.SetDefault("server.idleTimeout", d.Server.IdleTimeout)

	v.SetDefault("storage.type", d.Storage.Type)
	v.SetDefault("storage.path", d.Storage.Path)

	v.SetDefault("dispatch.demoMode", d.Dispatch.DemoMode)
	v.SetDefault("dispatch.forwardTimeout", d.Dispatch.ForwardTimeout)
	v.SetDefault("dispatch.breaker.failures", d.Dispatch.Breaker.Failures)
	v.SetDefault("dispatch.breaker.timeout", d.Dispatch.Breaker.Timeout)
	v.SetDefault("dispatch.breaker.halfOpenRequests", d.Dispatch.Breaker.HalfOpenRequests)

	v.SetDefault("audit.maxEvents", d.Audit.MaxEvents)
	v.SetDefault("audit.bufferSize", d.Audit.BufferSize)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// FromViper decodes and validates the configuration held by viper
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	switch c.Storage.Type {
	case "memory":
	case "file":
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for file storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.type %q", c.Storage.Type))
	}

	if c.Dispatch.ForwardTimeout < 0 {
		errs = append(errs, errors.New("dispatch.forwardTimeout must not be negative"))
	}
	if c.Dispatch.Breaker.Failures < 0 {
		errs = append(errs, errors.New("dispatch.breaker.failures must not be negative"))
	}
	if c.Audit.MaxEvents < 0 || c.Audit.BufferSize < 0 {
		errs = append(errs, errors.New("audit sizes must not be negative"))
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown logging.format %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// Address returns the listen address
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
