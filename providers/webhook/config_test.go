package webhook

import (
	"strings"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{name: "minimal", config: Config{URL: "http://dns-bridge.local"}},
		{name: "with auth", config: Config{URL: "https://dns-bridge.local", AuthHeader: "X-API-Key", AuthToken: "k"}},
		{name: "missing URL", config: Config{}, wantErr: "URL is required"},
		{name: "bad scheme", config: Config{URL: "ftp://dns-bridge.local"}, wantErr: "must start with http"},
		{name: "header without token", config: Config{URL: "http://x", AuthHeader: "X-API-Key"}, wantErr: "AUTH_TOKEN is required"},
		{name: "negative retries", config: Config{URL: "http://x", Retries: -1}, wantErr: "RETRIES"},
		{name: "negative delay", config: Config{URL: "http://x", RetryDelay: -time.Second}, wantErr: "RETRY_DELAY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigFromMap(t *testing.T) {
	cfg, err := LoadConfigFromMap("bridge", map[string]string{
		"URL":         "http://dns-bridge.local/api/",
		"AUTH_HEADER": "X-API-Key",
		"AUTH_TOKEN":  "secret",
		"RETRIES":     "2",
		"RETRY_DELAY": "250ms",
	})
	if err != nil {
		t.Fatalf("LoadConfigFromMap() error = %v", err)
	}
	if cfg.Retries != 2 || cfg.RetryDelay != 250*time.Millisecond || cfg.AuthToken != "secret" {
		t.Errorf("unexpected config: %+v", cfg)
	}

	defaults, err := LoadConfigFromMap("bridge", map[string]string{"URL": "http://x"})
	if err != nil {
		t.Fatal(err)
	}
	if defaults.Retries != 0 || defaults.RetryDelay != DefaultRetryDelay {
		t.Errorf("unexpected defaults: %+v", defaults)
	}

	for _, bad := range []map[string]string{
		{"URL": "http://x", "RETRIES": "many"},
		{"URL": "http://x", "RETRY_DELAY": "soon"},
		{},
	} {
		if _, err := LoadConfigFromMap("bridge", bad); err == nil {
			t.Errorf("expected error for %v", bad)
		}
	}
}
