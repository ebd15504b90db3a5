package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultWorkers is the pipeline pool size when nothing else is set.
	DefaultWorkers = 4
	// DefaultTimeout bounds a single inference call at the HTTP layer.
	DefaultTimeout = "30s"
)

// Config is the explicit configuration every component receives at
// construction. Resolution order: defaults, then the optional YAML file,
// then environment variables, then command-line flags (applied in cmd).
type Config struct {
	InferenceBaseURL string   `yaml:"inferenceBaseURL"`
	HTTPPort         int      `yaml:"httpPort"`
	InferencePath    string   `yaml:"inferencePath"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	Bucket           string   `yaml:"bucketName"`
	Labels           []string `yaml:"labels"`

	// Workers sizes the scan pool.
	Workers int `yaml:"workers"`
	// MaxObjects caps how many listed objects are processed; 0 = unlimited.
	MaxObjects int `yaml:"maxObjects"`
	// MetricsPort exposes /metrics during the scan when > 0.
	MetricsPort int `yaml:"metricsPort"`
	// Timeout is a duration string like "30s" (parsed with time.ParseDuration).
	Timeout string `yaml:"timeout"`
}

// Load builds the configuration from the optional YAML file at path plus
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Workers: DefaultWorkers,
		Timeout: DefaultTimeout,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("INFERENCE_BASE_URL"); v != "" {
		c.InferenceBaseURL = v
	}
	if v := os.Getenv("INFERENCE_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HTTPPort = port
		}
	}
	if v := os.Getenv("INFERENCE_PATH"); v != "" {
		c.InferencePath = v
	}
	if v := os.Getenv("INFERENCE_USERNAME"); v != "" {
		c.Username = v
	}
	if v := os.Getenv("INFERENCE_PASSWORD"); v != "" {
		c.Password = v
	}
	if v := os.Getenv("BUCKET_NAME"); v != "" {
		c.Bucket = v
	}
	if v := os.Getenv("TARGET_LABELS"); v != "" {
		c.Labels = ParseLabels(v)
	}
}

// ParseLabels splits the space-separated label list used by TARGET_LABELS.
func ParseLabels(raw string) []string {
	return strings.Fields(raw)
}

// TimeoutDuration parses the Timeout field; Validate guarantees it parses.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Validate checks the fields every scan needs. Credentials may legitimately
// be empty (an unauthenticated dev endpoint), so they are not required.
func (c *Config) Validate() error {
	if c.InferenceBaseURL == "" {
		return fmt.Errorf("inference base URL is required (INFERENCE_BASE_URL)")
	}
	if c.Bucket == "" {
		return fmt.Errorf("bucket name is required (BUCKET_NAME)")
	}
	if len(c.Labels) == 0 {
		return fmt.Errorf("at least one target label is required (TARGET_LABELS)")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.MaxObjects < 0 {
		return fmt.Errorf("maxObjects must be >= 0, got %d", c.MaxObjects)
	}
	if c.Timeout != "" {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			return fmt.Errorf("invalid timeout format (use '30s', '500ms'): %w", err)
		}
	}
	return nil
}
