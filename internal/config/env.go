package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/linesync/pkg/sshutil"
)

// Legacy variable names accepted when the LINESYNC_ equivalent is unset.
const (
	LegacyAK        = "HUAWEI_CLOUD_AK"
	LegacySK        = "HUAWEI_CLOUD_SK"
	LegacyProjectID = "HUAWEI_CLOUD_PROJECT_ID"
	LegacyZoneName  = "HUAWEI_CLOUD_ZONE_NAME"
	LegacyDomain    = "DOMAIN_NAME"
)

// DefaultLines are the line ids used when only LINESYNC_SOURCE_URL is set.
var DefaultLines = []Line{
	{ID: "dianxin", Name: "电信"},
	{ID: "liantong", Name: "联通"},
	{ID: "yidong", Name: "移动"},
}

// applyEnv overlays LINESYNC_* environment variables on cfg.
// Returns a list of validation errors (may be empty).
func applyEnv(cfg *Config) []string {
	var errs []string

	if v := getEnv(EnvPrefix + "LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := getEnv(EnvPrefix + "LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	if v := getEnv(EnvPrefix + "PROVIDER"); v != "" {
		cfg.Provider = strings.ToLower(v)
	}
	if v := getEnv(EnvPrefix + "PROVIDER_NAME"); v != "" {
		cfg.ProviderName = v
	}

	// Huawei Cloud credentials, with the legacy names as fallback.
	cfg.setProviderValue("AK", firstNonEmpty(getSecret("AK"), getEnv(LegacyAK)))
	cfg.setProviderValue("SK", firstNonEmpty(getSecret("SK"), getEnv(LegacySK)))
	cfg.setProviderValue("PROJECT_ID", firstEnv(EnvPrefix+"PROJECT_ID", LegacyProjectID))
	cfg.setProviderValue("REGION", getEnv(EnvPrefix+"REGION"))
	cfg.setProviderValue("ENDPOINT", getEnv(EnvPrefix+"ENDPOINT"))

	// Webhook settings.
	cfg.setProviderValue("URL", getEnv(EnvPrefix+"WEBHOOK_URL"))
	cfg.setProviderValue("AUTH_HEADER", getEnv(EnvPrefix+"WEBHOOK_AUTH_HEADER"))
	cfg.setProviderValue("AUTH_TOKEN", getSecret("WEBHOOK_AUTH_TOKEN"))
	cfg.setProviderValue("RETRIES", getEnv(EnvPrefix+"WEBHOOK_RETRIES"))
	cfg.setProviderValue("RETRY_DELAY", getEnv(EnvPrefix+"WEBHOOK_RETRY_DELAY"))

	if v := getEnv(EnvPrefix + "TLS_SKIP_VERIFY"); v != "" {
		cfg.TLSSkipVerify = parseBool(v, cfg.TLSSkipVerify)
	}
	errs = append(errs, envDuration("API_TIMEOUT", &cfg.APITimeout, time.Second)...)

	if v := firstEnv(EnvPrefix+"ZONE", LegacyZoneName); v != "" {
		cfg.Zone = v
	}
	if v := firstEnv(EnvPrefix+"DOMAIN", LegacyDomain); v != "" {
		cfg.Domain = v
	}

	if v := getEnv(EnvPrefix + "LINES"); v != "" {
		lines, lineErrs := ParseLines(v)
		errs = append(errs, lineErrs...)
		cfg.Lines = lines
	} else if src := getEnv(EnvPrefix + "SOURCE_URL"); src != "" && len(cfg.Lines) == 0 {
		cfg.Lines = DefaultLinesFor(src)
	}

	errs = append(errs, envDuration("FETCH_TIMEOUT", &cfg.FetchTimeout, time.Second)...)
	sftp, err := sshutil.LoadConfig(EnvPrefix + "SFTP_")
	if err != nil {
		errs = append(errs, err.Error())
	}
	cfg.SFTP = sftp
	if v := getEnv(EnvPrefix + "PARSE_RULE"); v != "" {
		cfg.ParseRule = strings.ToLower(v)
	}
	if v := getEnv(EnvPrefix + "COMMENT_MARKER"); v != "" {
		cfg.CommentMarker = v
	}

	if v := getEnv(EnvPrefix + "STRATEGY"); v != "" {
		cfg.Strategy = strings.ToLower(v)
	}
	if v := getEnv(EnvPrefix + "INSPECT"); v != "" {
		cfg.InspectMode = strings.ToLower(v)
	}
	if v := getEnv(EnvPrefix + "DRY_RUN"); v != "" {
		cfg.DryRun = parseBool(v, cfg.DryRun)
	}
	if v := getEnv(EnvPrefix + "TTL"); v != "" {
		ttl, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%sTTL: invalid integer %q", EnvPrefix, v))
		} else {
			cfg.TTL = ttl
		}
	}
	errs = append(errs, envDuration("DELAY", &cfg.LineDelay, 0)...)

	errs = append(errs, envDuration("INTERVAL", &cfg.Interval, time.Second)...)
	if v := getEnv(EnvPrefix + "HEALTH_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%sHEALTH_PORT: invalid integer %q", EnvPrefix, v))
		} else {
			cfg.HealthPort = port
		}
	}

	return errs
}

// envDuration parses LINESYNC_<key> into dst when set.
func envDuration(key string, dst *time.Duration, minimum time.Duration) []string {
	v := getEnv(EnvPrefix + key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return []string{fmt.Sprintf("%s%s: invalid duration %q (use format like 2s, 10m)", EnvPrefix, key, v)}
	}
	if d < minimum {
		return []string{fmt.Sprintf("%s%s: must be at least %s", EnvPrefix, key, minimum)}
	}
	*dst = d
	return nil
}

// ParseLines parses "id=url,id=url". A line may carry a display name as
// "id:name=url". Whitespace around entries is trimmed.
func ParseLines(s string) ([]Line, []string) {
	var (
		lines []Line
		errs  []string
	)

	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		key, source, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(source) == "" {
			errs = append(errs, fmt.Sprintf("%sLINES: entry %q must be id=url", EnvPrefix, entry))
			continue
		}

		id, name, _ := strings.Cut(key, ":")
		lines = append(lines, Line{
			ID:     strings.TrimSpace(id),
			Name:   strings.TrimSpace(name),
			Source: strings.TrimSpace(source),
		})
	}

	return lines, errs
}

// DefaultLinesFor returns DefaultLines all reading from source.
func DefaultLinesFor(source string) []Line {
	lines := make([]Line, len(DefaultLines))
	for i, l := range DefaultLines {
		l.Source = source
		lines[i] = l
	}
	return lines
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
