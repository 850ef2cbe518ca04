package config

import (
	"fmt"
	"net/url"
	"strings"

	"gitlab.bluewillows.net/root/linesync/internal/reconciler"
	"gitlab.bluewillows.net/root/linesync/internal/target"
	"gitlab.bluewillows.net/root/linesync/pkg/dnsname"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration error: %s", e.Errors[0])
	}
	return fmt.Sprintf("configuration errors:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// supportedSchemes are the target source schemes the resolver can fetch.
var supportedSchemes = map[string]bool{"http": true, "https": true, "file": true, "sftp": true}

// validate performs field and cross-field validation.
// Provider-specific settings are validated by the provider factory.
func (c *Config) validate() []string {
	var errs []string

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("%sLOG_LEVEL: invalid value %q (must be debug, info, warn, or error)", EnvPrefix, c.LogLevel))
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("%sLOG_FORMAT: invalid value %q (must be json or text)", EnvPrefix, c.LogFormat))
	}

	if c.Provider == "" {
		errs = append(errs, EnvPrefix+"PROVIDER: required but not set")
	}

	zoneOK := true
	if c.Zone == "" {
		errs = append(errs, fmt.Sprintf("%sZONE (or %s): required but not set", EnvPrefix, LegacyZoneName))
		zoneOK = false
	} else if err := dnsname.Validate(c.Zone); err != nil {
		errs = append(errs, fmt.Sprintf("%sZONE: %v", EnvPrefix, err))
		zoneOK = false
	}

	if c.Domain == "" {
		errs = append(errs, fmt.Sprintf("%sDOMAIN (or %s): required but not set", EnvPrefix, LegacyDomain))
	} else if err := dnsname.Validate(c.Domain); err != nil {
		errs = append(errs, fmt.Sprintf("%sDOMAIN: %v", EnvPrefix, err))
	} else if zoneOK && !dnsname.InZone(c.Domain, c.Zone) {
		errs = append(errs, fmt.Sprintf("%sDOMAIN: %q is not inside zone %q", EnvPrefix, c.Domain, c.Zone))
	}

	errs = append(errs, validateLines(c.Lines)...)

	if _, err := target.ParseParseRule(c.ParseRule); err != nil {
		errs = append(errs, fmt.Sprintf("%sPARSE_RULE: %v", EnvPrefix, err))
	}
	if _, err := reconciler.ParseStrategy(c.Strategy); err != nil {
		errs = append(errs, fmt.Sprintf("%sSTRATEGY: %v", EnvPrefix, err))
	}
	if _, err := reconciler.ParseInspectMode(c.InspectMode); err != nil {
		errs = append(errs, fmt.Sprintf("%sINSPECT: %v", EnvPrefix, err))
	}

	if c.TTL < 1 {
		errs = append(errs, fmt.Sprintf("%sTTL: must be at least 1, got %d", EnvPrefix, c.TTL))
	}
	if c.HealthPort < 1 || c.HealthPort > 65535 {
		errs = append(errs, fmt.Sprintf("%sHEALTH_PORT: must be between 1 and 65535, got %d", EnvPrefix, c.HealthPort))
	}

	return errs
}

func validateLines(lines []Line) []string {
	if len(lines) == 0 {
		return []string{fmt.Sprintf("%sLINES (or %sSOURCE_URL): at least one line is required", EnvPrefix, EnvPrefix)}
	}

	var errs []string
	seen := make(map[string]bool)
	for _, l := range lines {
		if l.ID == "" {
			errs = append(errs, fmt.Sprintf("line with source %q: id is required", l.Source))
			continue
		}
		if seen[l.ID] {
			errs = append(errs, fmt.Sprintf("duplicate line id: %q", l.ID))
		}
		seen[l.ID] = true

		if l.Source == "" {
			errs = append(errs, fmt.Sprintf("line %s: source is required", l.ID))
			continue
		}
		u, err := url.Parse(l.Source)
		if err != nil {
			errs = append(errs, fmt.Sprintf("line %s: invalid source URL: %v", l.ID, err))
			continue
		}
		if !supportedSchemes[strings.ToLower(u.Scheme)] {
			errs = append(errs, fmt.Sprintf("line %s: unsupported source scheme %q (must be http, https, file, or sftp)", l.ID, u.Scheme))
		}
	}
	return errs
}
