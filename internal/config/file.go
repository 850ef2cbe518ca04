package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileConfig represents the configuration file structure.
// The same layout is accepted as YAML and as TOML.
type FileConfig struct {
	Log       *FileLogConfig       `yaml:"log,omitempty" toml:"log,omitempty"`
	Provider  *FileProviderConfig  `yaml:"provider,omitempty" toml:"provider,omitempty"`
	Zone      string               `yaml:"zone,omitempty" toml:"zone,omitempty"`
	Domain    string               `yaml:"domain,omitempty" toml:"domain,omitempty"`
	Lines     []Line               `yaml:"lines,omitempty" toml:"lines,omitempty"`
	Target    *FileTargetConfig    `yaml:"target,omitempty" toml:"target,omitempty"`
	Reconcile *FileReconcileConfig `yaml:"reconcile,omitempty" toml:"reconcile,omitempty"`
	Serve     *FileServeConfig     `yaml:"serve,omitempty" toml:"serve,omitempty"`
}

// FileLogConfig holds logging settings.
type FileLogConfig struct {
	Level  string `yaml:"level,omitempty" toml:"level,omitempty"`
	Format string `yaml:"format,omitempty" toml:"format,omitempty"`
}

// FileProviderConfig holds provider selection and provider-specific settings.
type FileProviderConfig struct {
	Type          string            `yaml:"type,omitempty" toml:"type,omitempty"`
	Name          string            `yaml:"name,omitempty" toml:"name,omitempty"`
	Timeout       string            `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
	TLSSkipVerify *bool             `yaml:"tls_skip_verify,omitempty" toml:"tls_skip_verify,omitempty"`
	Config        map[string]string `yaml:"config,omitempty" toml:"config,omitempty"`
}

// FileTargetConfig holds target resolution settings.
type FileTargetConfig struct {
	// SourceURL applies the default line set when no lines are listed.
	SourceURL     string `yaml:"source_url,omitempty" toml:"source_url,omitempty"`
	ParseRule     string `yaml:"parse_rule,omitempty" toml:"parse_rule,omitempty"`
	CommentMarker string `yaml:"comment_marker,omitempty" toml:"comment_marker,omitempty"`
	Timeout       string `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

// FileReconcileConfig holds reconciliation settings.
type FileReconcileConfig struct {
	Strategy string `yaml:"strategy,omitempty" toml:"strategy,omitempty"`
	Inspect  string `yaml:"inspect,omitempty" toml:"inspect,omitempty"`
	DryRun   *bool  `yaml:"dry_run,omitempty" toml:"dry_run,omitempty"` // Pointer to distinguish unset from false
	TTL      int    `yaml:"ttl,omitempty" toml:"ttl,omitempty"`
	Delay    string `yaml:"delay,omitempty" toml:"delay,omitempty"`
}

// FileServeConfig holds serve-mode settings.
type FileServeConfig struct {
	Interval   string `yaml:"interval,omitempty" toml:"interval,omitempty"`
	HealthPort int    `yaml:"health_port,omitempty" toml:"health_port,omitempty"`
}

// envVarPattern matches ${VAR} or ${VAR:-default} syntax.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// InterpolateEnvVars replaces ${VAR} patterns with environment variable values.
// Supports ${VAR:-default} syntax for default values.
func InterpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		if value := os.Getenv(groups[1]); value != "" {
			return value
		}
		if len(groups) >= 3 {
			return groups[2]
		}
		return ""
	})
}

func (c *FileConfig) interpolateEnvVars() {
	if c.Log != nil {
		c.Log.Level = InterpolateEnvVars(c.Log.Level)
		c.Log.Format = InterpolateEnvVars(c.Log.Format)
	}

	if c.Provider != nil {
		c.Provider.Type = InterpolateEnvVars(c.Provider.Type)
		c.Provider.Name = InterpolateEnvVars(c.Provider.Name)
		c.Provider.Timeout = InterpolateEnvVars(c.Provider.Timeout)
		for k, v := range c.Provider.Config {
			c.Provider.Config[k] = InterpolateEnvVars(v)
		}
	}

	c.Zone = InterpolateEnvVars(c.Zone)
	c.Domain = InterpolateEnvVars(c.Domain)
	for i := range c.Lines {
		c.Lines[i].ID = InterpolateEnvVars(c.Lines[i].ID)
		c.Lines[i].Name = InterpolateEnvVars(c.Lines[i].Name)
		c.Lines[i].Source = InterpolateEnvVars(c.Lines[i].Source)
	}

	if c.Target != nil {
		c.Target.SourceURL = InterpolateEnvVars(c.Target.SourceURL)
		c.Target.ParseRule = InterpolateEnvVars(c.Target.ParseRule)
		c.Target.Timeout = InterpolateEnvVars(c.Target.Timeout)
	}

	if c.Reconcile != nil {
		c.Reconcile.Strategy = InterpolateEnvVars(c.Reconcile.Strategy)
		c.Reconcile.Inspect = InterpolateEnvVars(c.Reconcile.Inspect)
		c.Reconcile.Delay = InterpolateEnvVars(c.Reconcile.Delay)
	}

	if c.Serve != nil {
		c.Serve.Interval = InterpolateEnvVars(c.Serve.Interval)
	}
}

// LoadFile reads and parses a configuration file, detecting the format by
// extension: .toml is TOML, anything else is YAML. Environment variables in
// ${VAR} form are interpolated into string values.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing TOML config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	}

	cfg.interpolateEnvVars()

	return &cfg, nil
}

// apply copies every set file value onto cfg.
func (c *FileConfig) apply(cfg *Config) []string {
	var errs []string

	if c.Log != nil {
		if c.Log.Level != "" {
			cfg.LogLevel = strings.ToLower(c.Log.Level)
		}
		if c.Log.Format != "" {
			cfg.LogFormat = strings.ToLower(c.Log.Format)
		}
	}

	if p := c.Provider; p != nil {
		if p.Type != "" {
			cfg.Provider = strings.ToLower(p.Type)
		}
		if p.Name != "" {
			cfg.ProviderName = p.Name
		}
		errs = append(errs, fileDuration("provider.timeout", p.Timeout, &cfg.APITimeout, time.Second)...)
		if p.TLSSkipVerify != nil {
			cfg.TLSSkipVerify = *p.TLSSkipVerify
		}
		for k, v := range p.Config {
			// Keys are normalized to upper case to match env var loading.
			cfg.setProviderValue(k, v)
		}
	}

	if c.Zone != "" {
		cfg.Zone = c.Zone
	}
	if c.Domain != "" {
		cfg.Domain = c.Domain
	}
	if len(c.Lines) > 0 {
		cfg.Lines = append([]Line(nil), c.Lines...)
	}

	if t := c.Target; t != nil {
		if len(cfg.Lines) == 0 && t.SourceURL != "" {
			cfg.Lines = DefaultLinesFor(t.SourceURL)
		}
		if t.ParseRule != "" {
			cfg.ParseRule = strings.ToLower(t.ParseRule)
		}
		if t.CommentMarker != "" {
			cfg.CommentMarker = t.CommentMarker
		}
		errs = append(errs, fileDuration("target.timeout", t.Timeout, &cfg.FetchTimeout, time.Second)...)
	}

	if r := c.Reconcile; r != nil {
		if r.Strategy != "" {
			cfg.Strategy = strings.ToLower(r.Strategy)
		}
		if r.Inspect != "" {
			cfg.InspectMode = strings.ToLower(r.Inspect)
		}
		if r.DryRun != nil {
			cfg.DryRun = *r.DryRun
		}
		if r.TTL != 0 {
			cfg.TTL = r.TTL
		}
		errs = append(errs, fileDuration("reconcile.delay", r.Delay, &cfg.LineDelay, 0)...)
	}

	if s := c.Serve; s != nil {
		errs = append(errs, fileDuration("serve.interval", s.Interval, &cfg.Interval, time.Second)...)
		if s.HealthPort != 0 {
			cfg.HealthPort = s.HealthPort
		}
	}

	return errs
}

func fileDuration(field, v string, dst *time.Duration, minimum time.Duration) []string {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return []string{fmt.Sprintf("config file %s: invalid duration %q", field, v)}
	}
	if d < minimum {
		return []string{fmt.Sprintf("config file %s: must be at least %s", field, minimum)}
	}
	*dst = d
	return nil
}
