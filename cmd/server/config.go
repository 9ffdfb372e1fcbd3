// Package main provides the Pulseboard server CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config represents the server configuration. Values come from the YAML
// file first, then PULSEBOARD_* environment variables override them.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Projects  ProjectsConfig  `yaml:"projects"`
	Verbose   bool            `yaml:"-" ignored:"true"` // set via CLI flag
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Address        string `yaml:"address" envconfig:"ADDRESS"`
	MetricsAddress string `yaml:"metrics_address" envconfig:"METRICS_ADDRESS"`
}

// DatabaseConfig contains SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path" envconfig:"PATH"`
}

// AuthConfig contains authentication settings. Durations are strings in
// Go syntax ("12h", "15m").
type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret" envconfig:"JWT_SECRET"`
	AccessTokenTTL   string `yaml:"access_token_ttl" envconfig:"ACCESS_TOKEN_TTL"`
	LockoutThreshold int    `yaml:"lockout_threshold" envconfig:"LOCKOUT_THRESHOLD"`
	LockoutDuration  string `yaml:"lockout_duration" envconfig:"LOCKOUT_DURATION"`
	RateLimitPerIP   int    `yaml:"rate_limit_per_ip" envconfig:"RATE_LIMIT_PER_IP"`
	RateLimitPerUser int    `yaml:"rate_limit_per_user" envconfig:"RATE_LIMIT_PER_USER"`
}

// AnalyticsConfig contains Google Analytics reporting settings. The
// dashboard runs without analytics when no property is configured.
type AnalyticsConfig struct {
	PropertyID      string  `yaml:"property_id" envconfig:"PROPERTY_ID"`
	CredentialsFile string  `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	CredentialsJSON string  `yaml:"credentials_json" envconfig:"CREDENTIALS_JSON"`
	RequestTimeout  string  `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	RequestsPerSec  float64 `yaml:"requests_per_sec" envconfig:"REQUESTS_PER_SEC"`
}

// ProjectsConfig contains project behavior toggles.
type ProjectsConfig struct {
	// RequireMemberAssignment rejects task assignments to users who are
	// not members of the project. Off by default; historical data has
	// assignees outside the member list.
	RequireMemberAssignment bool `yaml:"require_member_assignment" envconfig:"REQUIRE_MEMBER_ASSIGNMENT"`
}

// LoadConfig loads configuration from a YAML file, then applies
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := envconfig.Process("pulseboard", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with default values. The JWT
// secret has no default and must be supplied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.MetricsAddress == "" {
		c.Server.MetricsAddress = ":9090"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/pulseboard.db"
	}
	if c.Auth.AccessTokenTTL == "" {
		c.Auth.AccessTokenTTL = "12h"
	}
	if c.Auth.LockoutThreshold == 0 {
		c.Auth.LockoutThreshold = 5
	}
	if c.Auth.LockoutDuration == "" {
		c.Auth.LockoutDuration = "15m"
	}
	// Standard Google credential variables apply when nothing more
	// specific is configured.
	if c.Analytics.CredentialsFile == "" {
		c.Analytics.CredentialsFile = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	if c.Analytics.CredentialsJSON == "" {
		c.Analytics.CredentialsJSON = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")
	}
	if c.Analytics.RequestTimeout == "" {
		c.Analytics.RequestTimeout = "10s"
	}
	if c.Analytics.RequestsPerSec == 0 {
		c.Analytics.RequestsPerSec = 5
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required (or PULSEBOARD_AUTH_JWT_SECRET)")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters")
	}
	if _, err := time.ParseDuration(c.Auth.AccessTokenTTL); err != nil {
		return fmt.Errorf("auth.access_token_ttl: %w", err)
	}
	if _, err := time.ParseDuration(c.Auth.LockoutDuration); err != nil {
		return fmt.Errorf("auth.lockout_duration: %w", err)
	}
	if _, err := time.ParseDuration(c.Analytics.RequestTimeout); err != nil {
		return fmt.Errorf("analytics.request_timeout: %w", err)
	}
	if c.Analytics.PropertyID != "" &&
		c.Analytics.CredentialsFile == "" && c.Analytics.CredentialsJSON == "" {
		return fmt.Errorf("analytics.property_id is set but no credentials are configured")
	}
	return nil
}

// mustDuration parses an already validated duration string.
func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic(fmt.Sprintf("duration %q escaped validation: %v", s, err))
	}
	return d
}
