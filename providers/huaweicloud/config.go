package huaweicloud

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultRegion is used when no region or endpoint is configured.
const DefaultRegion = "cn-east-3"

// Config holds Huawei Cloud DNS configuration.
type Config struct {
	AK        string // access key id
	SK        string // secret access key
	ProjectID string // sent as X-Project-Id
	Region    string // selects https://dns.{region}.myhuaweicloud.com
	Endpoint  string // overrides Region when set
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	var errs []string

	if c.AK == "" {
		errs = append(errs, "AK is required")
	}
	if c.SK == "" {
		errs = append(errs, "SK is required")
	}
	if c.ProjectID == "" {
		errs = append(errs, "PROJECT_ID is required")
	}
	if c.Endpoint != "" {
		u, err := url.Parse(c.Endpoint)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Sprintf("ENDPOINT %q must be an absolute http(s) URL", c.Endpoint))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("huaweicloud config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// APIEndpoint returns the DNS API base URL without a trailing slash.
func (c *Config) APIEndpoint() string {
	if c.Endpoint != "" {
		return strings.TrimRight(c.Endpoint, "/")
	}
	region := c.Region
	if region == "" {
		region = DefaultRegion
	}
	return fmt.Sprintf("https://dns.%s.myhuaweicloud.com", region)
}

// LoadConfigFromMap builds a Config from upper-case keys:
// AK, SK, PROJECT_ID, REGION, ENDPOINT.
func LoadConfigFromMap(name string, m map[string]string) (*Config, error) {
	cfg := &Config{
		AK:        strings.TrimSpace(m["AK"]),
		SK:        strings.TrimSpace(m["SK"]),
		ProjectID: strings.TrimSpace(m["PROJECT_ID"]),
		Region:    strings.TrimSpace(m["REGION"]),
		Endpoint:  strings.TrimSpace(m["ENDPOINT"]),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration for %s: %w", name, err)
	}
	return cfg, nil
}
