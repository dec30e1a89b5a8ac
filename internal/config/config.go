// ABOUTME: Configuration loading and parsing for quantrelay
// ABOUTME: YAML with environment variable expansion plus an env override layer

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config represents the complete quantrelay configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Generator GeneratorConfig `yaml:"generator"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" envconfig:"HTTP_ADDR"`
}

// AnalysisConfig holds the analysis service connection settings.
// BaseURL is environment-provided; a missing or wrong value surfaces as
// a transport failure on the first analysis call, not at startup.
type AnalysisConfig struct {
	BaseURL string `yaml:"base_url" envconfig:"ANALYSIS_BASE_URL"`

	Timeout time.Duration `yaml:"-" ignored:"true"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout" envconfig:"ANALYSIS_TIMEOUT"`
}

// GeneratorConfig holds the narrative generator backend settings
type GeneratorConfig struct {
	APIKey  string `yaml:"api_key" envconfig:"GENERATOR_API_KEY"`
	BaseURL string `yaml:"base_url" envconfig:"GENERATOR_BASE_URL"`
	Model   string `yaml:"model" envconfig:"GENERATOR_MODEL"`
}

// AuthConfig holds authentication configuration. An empty secret
// disables auth on the relay endpoint.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" envconfig:"JWT_SECRET"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"METRICS_ENABLED"`
	Path    string `yaml:"path" envconfig:"METRICS_PATH"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{HTTPAddr: ":8089"},
		Metrics: MetricsConfig{Path: "/metrics"},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded inside the YAML,
// then QUANTRELAY_-prefixed environment variables override individual fields.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return finish(cfg)
}

// FromEnv builds a configuration from defaults and environment variables
// alone, for deployments that ship no config file.
func FromEnv() (*Config, error) {
	return finish(Default())
}

func finish(cfg *Config) (*Config, error) {
	if err := envconfig.Process("quantrelay", cfg); err != nil {
		return nil, fmt.Errorf("applying env overrides: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
// Deliberately absent: any check on analysis.base_url (see AnalysisConfig).
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Metrics.Enabled && c.Metrics.Path == "" {
		return fmt.Errorf("metrics.path is required when metrics are enabled")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Analysis.TimeoutRaw != "" {
		cfg.Analysis.Timeout, err = time.ParseDuration(cfg.Analysis.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing analysis timeout %q: %w", cfg.Analysis.TimeoutRaw, err)
		}
	}

	return nil
}
