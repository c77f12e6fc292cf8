// File: internal/config/config.go
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Portal  PortalConfig  `mapstructure:"portal" yaml:"portal"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Watch   WatchConfig   `mapstructure:"watch" yaml:"watch"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the console color for each log level.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// PortalConfig identifies the registration portal and the account used to
// authenticate against it. Username and password are secrets; they are never
// written back to a config file and are bound to environment variables.
type PortalConfig struct {
	Username        string `mapstructure:"username" yaml:"-"`
	Password        string `mapstructure:"password" yaml:"-"`
	SearchURL       string `mapstructure:"search_url" yaml:"search_url"`
	RegistrationURL string `mapstructure:"registration_url" yaml:"registration_url"`
}

// BrowserConfig holds settings for the headless browser used during
// credential refresh.
type BrowserConfig struct {
	Headless bool     `mapstructure:"headless" yaml:"headless"`
	Args     []string `mapstructure:"args" yaml:"args"`
}

// WatchConfig describes the course section being watched and the pacing of
// the poll loop.
type WatchConfig struct {
	FieldName    string        `mapstructure:"field_name" yaml:"field_name"`
	SubjectCode  string        `mapstructure:"subject_code" yaml:"subject_code"`
	CourseNumber string        `mapstructure:"course_number" yaml:"course_number"`
	CourseIDs    []string      `mapstructure:"course_ids" yaml:"course_ids"`
	Interval     time.Duration `mapstructure:"interval" yaml:"interval"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "seatwatch")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "green")
	v.SetDefault("logger.colors.info", "blue")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "red")

	// -- Portal --
	v.SetDefault("portal.search_url",
		"https://banner.apps.uillinois.edu/StudentRegistrationSSB/ssb/searchResults/searchResults")
	v.SetDefault("portal.registration_url",
		"https://banner.apps.uillinois.edu/StudentRegistrationSSB/ssb/registration?mepCode=1UIUC#")

	// -- Browser --
	v.SetDefault("browser.headless", true)

	// -- Watch --
	v.SetDefault("watch.interval", 15*time.Second)
	v.SetDefault("watch.timeout", 10*time.Second)
}

// DefaultConfigDir returns the directory searched for seatwatch.yaml when no
// explicit config file is given.
func DefaultConfigDir() string {
	home, err := homedir.Dir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".seatwatch")
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Bind environment variables for sensitive data.
	v.BindEnv("portal.username", "SEATWATCH_PORTAL_USERNAME")
	v.BindEnv("portal.password", "SEATWATCH_PORTAL_PASSWORD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Portal.SearchURL == "" {
		return fmt.Errorf("portal.search_url is a required configuration field")
	}
	if c.Portal.RegistrationURL == "" {
		return fmt.Errorf("portal.registration_url is a required configuration field")
	}
	if c.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be a positive duration")
	}
	if c.Watch.Timeout <= 0 {
		return fmt.Errorf("watch.timeout must be a positive duration")
	}
	return nil
}

// ValidateCredentials checks that the portal account secrets are present.
// Kept separate from Validate so commands that never log in (e.g. version)
// do not demand secrets.
func (c *Config) ValidateCredentials() error {
	if c.Portal.Username == "" {
		return fmt.Errorf("portal username is required; set SEATWATCH_PORTAL_USERNAME")
	}
	if c.Portal.Password == "" {
		return fmt.Errorf("portal password is required; set SEATWATCH_PORTAL_PASSWORD")
	}
	return nil
}
