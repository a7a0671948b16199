// Package config loads and validates operator configuration. Values are
// resolved in three layers, later wins: built-in defaults, an optional YAML
// file, then environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	goyaml "gopkg.in/yaml.v3"
)

// AppConfig holds all configuration for the operator process.
type AppConfig struct {
	// Namespace is the namespace the operator itself runs in. It scopes the
	// recency cache keys and the default policy lookup.
	Namespace string `koanf:"namespace" yaml:"namespace"`

	Prometheus PrometheusConfig `koanf:"prometheus" yaml:"prometheus"`
	Loki       LokiConfig       `koanf:"loki" yaml:"loki"`
	Qdrant     QdrantConfig     `koanf:"qdrant" yaml:"qdrant"`
	Redis      RedisConfig      `koanf:"redis" yaml:"redis"`
	Metrics    MetricsConfig    `koanf:"metrics" yaml:"metrics"`
	Logging    LoggingConfig    `koanf:"logging" yaml:"logging"`
	Tracing    TracingConfig    `koanf:"tracing" yaml:"tracing"`
}

// PrometheusConfig points at the metrics backend used for fault detection.
type PrometheusConfig struct {
	URL            string `koanf:"url" yaml:"url"`
	TimeoutSeconds int    `koanf:"timeout_seconds" yaml:"timeout_seconds"`
}

// LokiConfig points at the log backend used for diagnosis context.
type LokiConfig struct {
	URL            string `koanf:"url" yaml:"url"`
	TimeoutSeconds int    `koanf:"timeout_seconds" yaml:"timeout_seconds"`
}

// QdrantConfig points at the vector store backing the knowledge base.
type QdrantConfig struct {
	URL            string `koanf:"url" yaml:"url"`
	CollectionName string `koanf:"collection_name" yaml:"collection_name"`
	TimeoutSeconds int    `koanf:"timeout_seconds" yaml:"timeout_seconds"`
}

// RedisConfig points at the recency cache.
type RedisConfig struct {
	URL               string `koanf:"url" yaml:"url"`
	DefaultTTLSeconds int    `koanf:"default_ttl_seconds" yaml:"default_ttl_seconds"`
}

// MetricsConfig controls the operator's own /metrics endpoint.
type MetricsConfig struct {
	Port int    `koanf:"port" yaml:"port"`
	Path string `koanf:"path" yaml:"path"`
}

// LoggingConfig controls the process-wide log output.
type LoggingConfig struct {
	Level      string `koanf:"level" yaml:"level"`
	JSONFormat bool   `koanf:"json_format" yaml:"json_format"`
}

// TracingConfig controls OTLP trace export.
type TracingConfig struct {
	Enabled   bool   `koanf:"enabled" yaml:"enabled"`
	Endpoint  string `koanf:"endpoint" yaml:"endpoint"`
	TLSCAPath string `koanf:"tls_ca_path" yaml:"tls_ca_path"`
}

// Default returns the built-in configuration, suitable for a cluster where
// the observability stack runs under its conventional service names.
func Default() *AppConfig {
	return &AppConfig{
		Namespace: "recist-system",
		Prometheus: PrometheusConfig{
			URL:            "http://prometheus:9090",
			TimeoutSeconds: 10,
		},
		Loki: LokiConfig{
			URL:            "http://loki:3100",
			TimeoutSeconds: 10,
		},
		Qdrant: QdrantConfig{
			URL:            "http://qdrant:6334",
			CollectionName: "healing_events",
			TimeoutSeconds: 10,
		},
		Redis: RedisConfig{
			URL:               "redis://redis:6379",
			DefaultTTLSeconds: 3600,
		},
		Metrics: MetricsConfig{
			Port: 9090,
			Path: "/metrics",
		},
		Logging: LoggingConfig{
			Level:      "info",
			JSONFormat: false,
		},
		Tracing: TracingConfig{},
	}
}

// Load resolves the effective configuration. The YAML file at path is
// optional; pass "" to skip it. Environment variables override both the
// defaults and the file.
func Load(path string) (*AppConfig, error) {
	cfg := Default()

	if path != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, NewConfigError("failed to load config file %q: %v", path, err)
		}
		if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
			return nil, NewConfigError("failed to parse config file %q: %v", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the config.
func (c *AppConfig) applyEnv() {
	envString(&c.Namespace, "NAMESPACE")
	envString(&c.Prometheus.URL, "PROMETHEUS_URL")
	envInt(&c.Prometheus.TimeoutSeconds, "PROMETHEUS_TIMEOUT")
	envString(&c.Loki.URL, "LOKI_URL")
	envInt(&c.Loki.TimeoutSeconds, "LOKI_TIMEOUT")
	envString(&c.Qdrant.URL, "QDRANT_URL")
	envString(&c.Qdrant.CollectionName, "QDRANT_COLLECTION")
	envInt(&c.Qdrant.TimeoutSeconds, "QDRANT_TIMEOUT")
	envString(&c.Redis.URL, "REDIS_URL")
	envInt(&c.Redis.DefaultTTLSeconds, "REDIS_TTL")
	envInt(&c.Metrics.Port, "METRICS_PORT")
	envString(&c.Logging.Level, "LOG_LEVEL")
	if endpoint := os.Getenv("TRACING_ENDPOINT"); endpoint != "" {
		c.Tracing.Enabled = true
		c.Tracing.Endpoint = endpoint
	}
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate checks that the configuration is usable.
func (c *AppConfig) Validate() error {
	if c.Namespace == "" {
		return NewConfigError("namespace must not be empty")
	}
	if c.Prometheus.URL == "" {
		return NewConfigError("prometheus.url must not be empty")
	}
	if c.Prometheus.TimeoutSeconds < 1 {
		return NewConfigError("prometheus.timeout_seconds must be at least 1")
	}
	if c.Loki.URL == "" {
		return NewConfigError("loki.url must not be empty")
	}
	if c.Loki.TimeoutSeconds < 1 {
		return NewConfigError("loki.timeout_seconds must be at least 1")
	}
	if c.Qdrant.URL == "" {
		return NewConfigError("qdrant.url must not be empty")
	}
	if c.Qdrant.CollectionName == "" {
		return NewConfigError("qdrant.collection_name must not be empty")
	}
	if c.Qdrant.TimeoutSeconds < 1 {
		return NewConfigError("qdrant.timeout_seconds must be at least 1")
	}
	if c.Redis.URL == "" {
		return NewConfigError("redis.url must not be empty")
	}
	if c.Redis.DefaultTTLSeconds < 1 {
		return NewConfigError("redis.default_ttl_seconds must be at least 1")
	}
	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return NewConfigError("metrics.port must be between 1 and 65535")
	}
	if c.Metrics.Path == "" {
		return NewConfigError("metrics.path must not be empty")
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return NewConfigError("tracing.endpoint must be set when tracing is enabled")
	}
	return nil
}

// PrometheusTimeout returns the Prometheus client timeout as a duration.
func (c *AppConfig) PrometheusTimeout() time.Duration {
	return time.Duration(c.Prometheus.TimeoutSeconds) * time.Second
}

// LokiTimeout returns the Loki client timeout as a duration.
func (c *AppConfig) LokiTimeout() time.Duration {
	return time.Duration(c.Loki.TimeoutSeconds) * time.Second
}

// QdrantTimeout returns the Qdrant client timeout as a duration.
func (c *AppConfig) QdrantTimeout() time.Duration {
	return time.Duration(c.Qdrant.TimeoutSeconds) * time.Second
}

// RedisTTL returns the recency cache TTL as a duration.
func (c *AppConfig) RedisTTL() time.Duration {
	return time.Duration(c.Redis.DefaultTTLSeconds) * time.Second
}

// Render marshals the effective configuration to YAML.
func (c *AppConfig) Render() (string, error) {
	out, err := goyaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}
	return string(out), nil
}

// ConfigError represents a configuration error.
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error.
func NewConfigError(format string, args ...interface{}) *ConfigError {
	return &ConfigError{message: fmt.Sprintf(format, args...)}
}

// Error returns the error message.
func (e *ConfigError) Error() string {
	return e.message
}
