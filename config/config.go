// Package config loads the booth runtime configuration from an optional YAML
// file and PB_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAddr              = "0.0.0.0:8080"
	defaultPublicURL         = "http://localhost:8080"
	defaultAdminSessionMin   = 30
	defaultRetentionLimit    = 500
	defaultRetentionInterval = 60
	defaultQRServiceURL      = "https://api.qrserver.com/v1/create-qr-code/"
)

// Config aggregates all application configuration.
type Config struct {
	RootPath      string `yaml:"root_path"`
	Addr          string `yaml:"addr"`
	PublicURL     string `yaml:"public_url"`
	AdminPassword string `yaml:"admin_password"` // only used when no hash is stored yet
	LogLevel      string `yaml:"log_level"`

	AdminSessionMinutes      int `yaml:"admin_session_minutes"`
	RetentionLimit           int `yaml:"retention_limit"`
	RetentionIntervalMinutes int `yaml:"retention_interval_minutes"`

	S3Bucket   string `yaml:"s3_bucket"`
	S3Prefix   string `yaml:"s3_prefix"`
	AWSProfile string `yaml:"aws_profile"`

	QRServiceURL string `yaml:"qr_service_url"`
}

// Load reads the YAML file at path when path is non-empty, applies PB_*
// environment overrides and fills in defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if err := ValidateConfigPath(path); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal yaml: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateConfigPath only accepts .yaml files.
func ValidateConfigPath(path string) error {
	if filepath.Ext(path) != ".yaml" {
		return fmt.Errorf("config file must have .yaml extension, got %q", path)
	}
	return nil
}

func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) {
		v := os.Getenv(key)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("unable to parse integer environment variable, ignoring", key, v, "error", err)
			return
		}
		*dst = n
	}

	setString(&c.RootPath, "PB_ROOT_PATH")
	setString(&c.Addr, "PB_ADDR")
	setString(&c.PublicURL, "PB_PUBLIC_URL")
	setString(&c.AdminPassword, "PB_ADMIN_PASSWORD")
	setString(&c.LogLevel, "PB_LOG_LEVEL")
	setString(&c.S3Bucket, "PB_S3_BUCKET")
	setString(&c.S3Prefix, "PB_S3_PREFIX")
	setString(&c.AWSProfile, "PB_AWS_PROFILE")
	setString(&c.QRServiceURL, "PB_QR_SERVICE_URL")
	setInt(&c.AdminSessionMinutes, "PB_ADMIN_SESSION_MINUTES")
	setInt(&c.RetentionLimit, "PB_RETENTION_LIMIT")
	setInt(&c.RetentionIntervalMinutes, "PB_RETENTION_INTERVAL_MINUTES")
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = defaultAddr
	}
	if c.PublicURL == "" {
		c.PublicURL = defaultPublicURL
	}
	c.PublicURL = strings.TrimRight(c.PublicURL, "/")
	if c.AdminSessionMinutes <= 0 {
		c.AdminSessionMinutes = defaultAdminSessionMin
	}
	if c.RetentionLimit == 0 {
		c.RetentionLimit = defaultRetentionLimit
	}
	if c.RetentionIntervalMinutes <= 0 {
		c.RetentionIntervalMinutes = defaultRetentionInterval
	}
	if c.QRServiceURL == "" {
		c.QRServiceURL = defaultQRServiceURL
	}
}

// Validate checks the fields that have no usable default.
func (c *Config) Validate() error {
	if c.RootPath == "" {
		return errors.New("root_path is required (PB_ROOT_PATH)")
	}
	if c.RetentionLimit <= 0 {
		return fmt.Errorf("retention_limit must be > 0, got %d", c.RetentionLimit)
	}
	u, err := url.Parse(c.PublicURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("public_url must be an absolute url, got %q", c.PublicURL)
	}
	return nil
}

// DatabasePath is where the sqlite database lives.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.RootPath, "photobooth.db")
}

// CapturesPath is the directory composites are written to.
func (c *Config) CapturesPath() string {
	return filepath.Join(c.RootPath, "captures")
}

// AdminSessionTTL returns how long an admin token stays valid.
func (c *Config) AdminSessionTTL() time.Duration {
	return time.Duration(c.AdminSessionMinutes) * time.Minute
}

// RetentionInterval returns how often old composites are pruned.
func (c *Config) RetentionInterval() time.Duration {
	return time.Duration(c.RetentionIntervalMinutes) * time.Minute
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
