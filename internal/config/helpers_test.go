package config

import "testing"

// configEnvKeys lists every variable Load reads.
var configEnvKeys = []string{
	"LINESYNC_CONFIG",
	"LINESYNC_LOG_LEVEL", "LINESYNC_LOG_FORMAT",
	"LINESYNC_PROVIDER", "LINESYNC_PROVIDER_NAME",
	"LINESYNC_AK", "LINESYNC_AK_FILE", "LINESYNC_SK", "LINESYNC_SK_FILE",
	"LINESYNC_PROJECT_ID", "LINESYNC_REGION", "LINESYNC_ENDPOINT",
	"LINESYNC_WEBHOOK_URL", "LINESYNC_WEBHOOK_AUTH_HEADER",
	"LINESYNC_WEBHOOK_AUTH_TOKEN", "LINESYNC_WEBHOOK_AUTH_TOKEN_FILE",
	"LINESYNC_WEBHOOK_RETRIES", "LINESYNC_WEBHOOK_RETRY_DELAY",
	"LINESYNC_TLS_SKIP_VERIFY", "LINESYNC_API_TIMEOUT",
	"LINESYNC_ZONE", "LINESYNC_DOMAIN", "LINESYNC_LINES", "LINESYNC_SOURCE_URL",
	"LINESYNC_FETCH_TIMEOUT", "LINESYNC_PARSE_RULE", "LINESYNC_COMMENT_MARKER",
	"LINESYNC_STRATEGY", "LINESYNC_INSPECT", "LINESYNC_DRY_RUN", "LINESYNC_TTL",
	"LINESYNC_DELAY", "LINESYNC_INTERVAL", "LINESYNC_HEALTH_PORT",
	"LINESYNC_SFTP_HOST", "LINESYNC_SFTP_PORT", "LINESYNC_SFTP_USER",
	"LINESYNC_SFTP_KEY_FILE", "LINESYNC_SFTP_KEY_DATA", "LINESYNC_SFTP_PASSWORD",
	"LINESYNC_SFTP_KNOWN_HOSTS", "LINESYNC_SFTP_INSECURE_IGNORE_HOST_KEY", "LINESYNC_SFTP_TIMEOUT",
	LegacyAK, LegacySK, LegacyProjectID, LegacyZoneName, LegacyDomain,
}

// clearConfigEnv blanks every config variable for the duration of the test.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
	}
}

// setMinimalEnv sets the smallest valid environment.
func setMinimalEnv(t *testing.T) {
	t.Helper()
	clearConfigEnv(t)
	t.Setenv("LINESYNC_AK", "ak")
	t.Setenv("LINESYNC_SK", "sk")
	t.Setenv("LINESYNC_PROJECT_ID", "project")
	t.Setenv("LINESYNC_ZONE", "example.com")
	t.Setenv("LINESYNC_DOMAIN", "www.example.com")
	t.Setenv("LINESYNC_SOURCE_URL", "https://targets.example.net/cdn.txt")
}
