// Package config loads linesync configuration from an optional YAML or TOML
// file and LINESYNC_* environment variables, then validates it.
//
// Precedence, lowest to highest: built-in defaults, config file, environment.
// Every problem found is collected and reported together in a ValidationError.
package config

import (
	"strings"
	"time"

	"gitlab.bluewillows.net/root/linesync/pkg/sshutil"
)

// Configuration defaults.
const (
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "json"
	DefaultProvider      = "huaweicloud"
	DefaultStrategy      = "replace"
	DefaultInspectMode   = "line"
	DefaultParseRule     = "first-line"
	DefaultCommentMarker = "#"
	DefaultTTL           = 60
	DefaultLineDelay     = 2 * time.Second
	DefaultFetchTimeout  = 10 * time.Second
	DefaultAPITimeout    = 10 * time.Second
	DefaultInterval      = 10 * time.Minute
	DefaultHealthPort    = 8080
)

// Line is one ISP line and the URL its target is published at.
type Line struct {
	ID     string `yaml:"id" toml:"id"`
	Name   string `yaml:"name,omitempty" toml:"name,omitempty"`
	Source string `yaml:"source" toml:"source"`
}

// Config holds the complete runtime configuration.
type Config struct {
	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// Provider selection and provider-specific settings. ProviderConfig keys
	// are upper-case (AK, SK, PROJECT_ID, REGION, ENDPOINT, URL, ...).
	Provider       string
	ProviderName   string
	ProviderConfig map[string]string
	APITimeout     time.Duration
	TLSSkipVerify  bool

	// What to reconcile
	Zone   string
	Domain string
	Lines  []Line

	// Target resolution
	FetchTimeout  time.Duration
	ParseRule     string
	CommentMarker string

	// SFTP holds SSH defaults for sftp:// sources (LINESYNC_SFTP_*).
	// Host, port and user given in a source URL take precedence.
	SFTP sshutil.Config

	// Reconciliation behavior
	Strategy    string
	InspectMode string
	DryRun      bool
	TTL         int
	LineDelay   time.Duration

	// Serve mode
	Interval   time.Duration
	HealthPort int

	// ConfigFile is the file the configuration was loaded from, if any.
	ConfigFile string
}

// Defaults returns a Config populated with built-in defaults only.
func Defaults() *Config {
	return &Config{
		LogLevel:       DefaultLogLevel,
		LogFormat:      DefaultLogFormat,
		Provider:       DefaultProvider,
		ProviderConfig: make(map[string]string),
		APITimeout:     DefaultAPITimeout,
		FetchTimeout:   DefaultFetchTimeout,
		ParseRule:      DefaultParseRule,
		CommentMarker:  DefaultCommentMarker,
		Strategy:       DefaultStrategy,
		InspectMode:    DefaultInspectMode,
		TTL:            DefaultTTL,
		LineDelay:      DefaultLineDelay,
		Interval:       DefaultInterval,
		HealthPort:     DefaultHealthPort,
	}
}

// InstanceName returns the provider instance name used in logs and metrics.
func (c *Config) InstanceName() string {
	if c.ProviderName != "" {
		return c.ProviderName
	}
	return c.Provider
}

// LineIDs returns the configured line ids in order.
func (c *Config) LineIDs() []string {
	ids := make([]string, 0, len(c.Lines))
	for _, l := range c.Lines {
		ids = append(ids, l.ID)
	}
	return ids
}

// Load builds the configuration. path selects a config file; when empty,
// LINESYNC_CONFIG is consulted. A missing path means environment only.
func Load(path string) (*Config, error) {
	if path == "" {
		path = getEnv(EnvPrefix + "CONFIG")
	}

	cfg := Defaults()
	var errs []string

	if path != "" {
		fc, err := LoadFile(path)
		if err != nil {
			errs = append(errs, "config file: "+err.Error())
		} else {
			errs = append(errs, fc.apply(cfg)...)
			cfg.ConfigFile = path
		}
	}

	errs = append(errs, applyEnv(cfg)...)
	errs = append(errs, cfg.validate()...)

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return cfg, nil
}

// setProviderValue stores a provider setting under its upper-case key,
// ignoring empty values.
func (c *Config) setProviderValue(key, value string) {
	if value == "" {
		return
	}
	if c.ProviderConfig == nil {
		c.ProviderConfig = make(map[string]string)
	}
	c.ProviderConfig[strings.ToUpper(key)] = value
}
