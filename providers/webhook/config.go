package webhook

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultRetryDelay is the base delay between retry attempts.
const DefaultRetryDelay = time.Second

// Config holds webhook-specific configuration.
type Config struct {
	URL        string        // Base URL for the webhook endpoint (required)
	AuthHeader string        // Custom authentication header name (optional)
	AuthToken  string        // Authentication token value (optional)
	Retries    int           // Retry attempts for 429/502/503/504, never for POST (default: 0)
	RetryDelay time.Duration // Base delay between retries (default: 1s)
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	var errs []string

	if c.URL == "" {
		errs = append(errs, "URL is required")
	} else if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		errs = append(errs, "URL must start with http:// or https://")
	}

	if c.AuthHeader != "" && c.AuthToken == "" {
		errs = append(errs, "AUTH_TOKEN is required when AUTH_HEADER is set")
	}
	if c.Retries < 0 {
		errs = append(errs, "RETRIES must be non-negative")
	}
	if c.RetryDelay < 0 {
		errs = append(errs, "RETRY_DELAY must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("webhook config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadConfigFromMap builds a Config from upper-case keys:
// URL, AUTH_HEADER, AUTH_TOKEN, RETRIES, RETRY_DELAY.
func LoadConfigFromMap(name string, m map[string]string) (*Config, error) {
	cfg := &Config{
		URL:        strings.TrimSpace(m["URL"]),
		AuthHeader: m["AUTH_HEADER"],
		AuthToken:  m["AUTH_TOKEN"],
		RetryDelay: DefaultRetryDelay,
	}

	if v := m["RETRIES"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("configuration for %s: invalid RETRIES value %q: %w", name, v, err)
		}
		cfg.Retries = n
	}

	if v := m["RETRY_DELAY"]; v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("configuration for %s: invalid RETRY_DELAY value %q: %w", name, v, err)
		}
		cfg.RetryDelay = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration for %s: %w", name, err)
	}
	return cfg, nil
}
