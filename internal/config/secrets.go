package config

import (
	"os"
	"strings"
)

// EnvPrefix prefixes every linesync environment variable.
const EnvPrefix = "LINESYNC_"

// getEnv retrieves an environment variable value, trimmed.
func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// getEnvOrFile retrieves a value from either a direct environment variable
// or a file path specified by the file key (Docker secrets pattern).
//
// If both are set, the file takes precedence. The file contents are trimmed
// of leading and trailing whitespace.
func getEnvOrFile(directKey, fileKey string) string {
	if filePath := os.Getenv(fileKey); filePath != "" {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	return getEnv(directKey)
}

// getSecret reads LINESYNC_<key>, honoring LINESYNC_<key>_FILE.
func getSecret(key string) string {
	return getEnvOrFile(EnvPrefix+key, EnvPrefix+key+"_FILE")
}

// firstEnv returns the first non-empty value among keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := getEnv(k); v != "" {
			return v
		}
	}
	return ""
}

// parseBool parses a boolean string, returning defaultValue on parse failure.
// Accepts: true/false, 1/0, yes/no, on/off (case-insensitive).
func parseBool(s string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}
