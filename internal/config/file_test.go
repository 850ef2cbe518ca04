package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInterpolateEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "test-value")
	t.Setenv("API_TOKEN", "secret123")
	t.Setenv("NONEXISTENT_VAR", "")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple variable", "${TEST_VAR}", "test-value"},
		{"variable in string", "prefix-${TEST_VAR}-suffix", "prefix-test-value-suffix"},
		{"multiple variables", "${TEST_VAR}:${API_TOKEN}", "test-value:secret123"},
		{"unset variable", "${NONEXISTENT_VAR}", ""},
		{"default value", "${NONEXISTENT_VAR:-default}", "default"},
		{"default value not used when set", "${TEST_VAR:-default}", "test-value"},
		{"no variables", "plain string", "plain string"},
		{"empty default", "${NONEXISTENT_VAR:-}", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InterpolateEnvVars(tt.input); got != tt.expected {
				t.Errorf("InterpolateEnvVars(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

const yamlConfig = `
log:
  level: debug
  format: text
provider:
  type: huaweicloud
  name: huawei-public
  timeout: 5s
  config:
    ak: ${TEST_LINESYNC_AK}
    sk: file-sk
    project_id: p-123
    region: ${TEST_LINESYNC_REGION:-cn-north-4}
zone: example.com
domain: www.example.com
lines:
  - id: dianxin
    name: 电信
    source: https://targets.example.net/dx.txt
  - id: liantong
    source: https://targets.example.net/lt.txt
target:
  parse_rule: first-token
  comment_marker: ";"
reconcile:
  strategy: update
  inspect: domain
  dry_run: true
  ttl: 300
  delay: 500ms
serve:
  interval: 5m
  health_port: 9100
`

func TestLoadFile_YAML(t *testing.T) {
	t.Setenv("TEST_LINESYNC_AK", "file-ak")
	t.Setenv("TEST_LINESYNC_REGION", "")
	path := writeFile(t, "linesync.yaml", yamlConfig)

	fc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	cfg := Defaults()
	if errs := fc.apply(cfg); len(errs) != 0 {
		t.Fatalf("apply() errors: %v", errs)
	}

	if cfg.LogLevel != "debug" || cfg.LogFormat != "text" {
		t.Errorf("log = %s/%s", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.InstanceName() != "huawei-public" || cfg.APITimeout != 5*time.Second {
		t.Errorf("provider = %s/%v", cfg.InstanceName(), cfg.APITimeout)
	}
	if cfg.ProviderConfig["AK"] != "file-ak" {
		t.Errorf("AK = %q, want interpolated file-ak", cfg.ProviderConfig["AK"])
	}
	if cfg.ProviderConfig["REGION"] != "cn-north-4" {
		t.Errorf("REGION = %q, want default cn-north-4", cfg.ProviderConfig["REGION"])
	}
	if cfg.ProviderConfig["PROJECT_ID"] != "p-123" {
		t.Errorf("keys must be upper-cased: %v", cfg.ProviderConfig)
	}
	if len(cfg.Lines) != 2 || cfg.Lines[0].Name != "电信" || cfg.Lines[1].ID != "liantong" {
		t.Errorf("lines = %+v", cfg.Lines)
	}
	if cfg.ParseRule != "first-token" || cfg.CommentMarker != ";" {
		t.Errorf("target = %s/%s", cfg.ParseRule, cfg.CommentMarker)
	}
	if cfg.Strategy != "update" || cfg.InspectMode != "domain" || !cfg.DryRun {
		t.Errorf("reconcile = %s/%s/%v", cfg.Strategy, cfg.InspectMode, cfg.DryRun)
	}
	if cfg.TTL != 300 || cfg.LineDelay != 500*time.Millisecond {
		t.Errorf("ttl/delay = %d/%v", cfg.TTL, cfg.LineDelay)
	}
	if cfg.Interval != 5*time.Minute || cfg.HealthPort != 9100 {
		t.Errorf("serve = %v/%d", cfg.Interval, cfg.HealthPort)
	}
}

const tomlConfig = `
zone = "example.com"
domain = "www.example.com"

[provider]
type = "webhook"

[provider.config]
url = "https://dns.internal/api"
auth_header = "X-API-Key"
auth_token = "t0ken"

[target]
source_url = "https://targets.example.net/cdn.txt"

[reconcile]
ttl = 90
`

func TestLoadFile_TOML(t *testing.T) {
	path := writeFile(t, "linesync.toml", tomlConfig)

	fc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	cfg := Defaults()
	if errs := fc.apply(cfg); len(errs) != 0 {
		t.Fatalf("apply() errors: %v", errs)
	}

	if cfg.Provider != "webhook" {
		t.Errorf("Provider = %q", cfg.Provider)
	}
	if cfg.ProviderConfig["URL"] != "https://dns.internal/api" || cfg.ProviderConfig["AUTH_HEADER"] != "X-API-Key" {
		t.Errorf("provider config = %v", cfg.ProviderConfig)
	}
	if got := strings.Join(cfg.LineIDs(), ","); got != "dianxin,liantong,yidong" {
		t.Errorf("source_url should expand to default lines, got %q", got)
	}
	if cfg.TTL != 90 {
		t.Errorf("TTL = %d", cfg.TTL)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := writeFile(t, "bad.yaml", "zone: [unterminated")
	if _, err := LoadFile(bad); err == nil || !strings.Contains(err.Error(), "YAML") {
		t.Errorf("expected YAML parse error, got %v", err)
	}

	badTOML := writeFile(t, "bad.toml", "zone = ")
	if _, err := LoadFile(badTOML); err == nil || !strings.Contains(err.Error(), "TOML") {
		t.Errorf("expected TOML parse error, got %v", err)
	}
}

func TestFileConfig_ApplyInvalidDurations(t *testing.T) {
	fc := &FileConfig{
		Provider:  &FileProviderConfig{Timeout: "fast"},
		Reconcile: &FileReconcileConfig{Delay: "-"},
		Serve:     &FileServeConfig{Interval: "1ms"},
	}
	errs := fc.apply(Defaults())
	if len(errs) != 3 {
		t.Errorf("expected 3 errors, got %v", errs)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("TEST_LINESYNC_AK", "file-ak")
	path := writeFile(t, "linesync.yml", yamlConfig)
	t.Setenv("LINESYNC_CONFIG", path)
	t.Setenv("LINESYNC_TTL", "60")
	t.Setenv("LINESYNC_STRATEGY", "replace")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, path)
	}
	if cfg.TTL != 60 || cfg.Strategy != "replace" {
		t.Errorf("env should override file: ttl=%d strategy=%s", cfg.TTL, cfg.Strategy)
	}
	if cfg.InspectMode != "domain" {
		t.Errorf("file value should survive: inspect=%s", cfg.InspectMode)
	}
}

func TestLoad_BadFileIsReported(t *testing.T) {
	setMinimalEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "config file") {
		t.Errorf("expected config file error, got %v", err)
	}
}
