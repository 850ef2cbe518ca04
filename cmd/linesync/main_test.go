package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"gitlab.bluewillows.net/root/linesync/internal/config"
	"gitlab.bluewillows.net/root/linesync/pkg/provider"
	"gitlab.bluewillows.net/root/linesync/providers/webhook"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"plain error", errors.New("boom"), exitFatal},
		{"config error", configError(errors.New("bad")), exitConfig},
		{"zone error", zoneError(errors.New("missing")), exitNoZone},
		{"wrapped config error", fmt.Errorf("outer: %w", configError(errors.New("bad"))), exitConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "linesync version "+Version) {
		t.Errorf("unexpected output: %q", out.String())
	}
}

// fakeBackend is an in-memory webhook backend holding one zone.
type fakeBackend struct {
	mu      sync.Mutex
	zones   []webhook.Zone
	status  int // forced status for /zones, when set
	sets    []webhook.RecordSet
	nextID  int
	creates int
	deletes int
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case r.URL.Path == "/ping":
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/zones" && b.status != 0:
		w.WriteHeader(b.status)
	case r.URL.Path == "/zones":
		_ = json.NewEncoder(w).Encode(b.zones)
	case r.URL.Path == "/recordsets" && r.Method == http.MethodGet:
		q := r.URL.Query()
		out := []webhook.RecordSet{}
		for _, s := range b.sets {
			if name := q.Get("name"); name != "" && s.Name != name {
				continue
			}
			if line := q.Get("line"); line != "" && (s.Line == nil || *s.Line != line) {
				continue
			}
			out = append(out, s)
		}
		_ = json.NewEncoder(w).Encode(out)
	case r.URL.Path == "/recordsets" && r.Method == http.MethodPost:
		var s webhook.RecordSet
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.nextID++
		b.creates++
		s.ID = fmt.Sprintf("rs-%d", b.nextID)
		b.sets = append(b.sets, s)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(s)
	case strings.HasPrefix(r.URL.Path, "/recordsets/") && r.Method == http.MethodDelete:
		b.deletes++
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// setPassEnv points configuration at a webhook backend and a file source.
func setPassEnv(t *testing.T, backendURL, source string) {
	t.Helper()
	for _, k := range []string{
		"LINESYNC_CONFIG", "LINESYNC_SOURCE_URL", "LINESYNC_PROVIDER_NAME",
		"LINESYNC_STRATEGY", "LINESYNC_INSPECT", "LINESYNC_DRY_RUN", "LINESYNC_TTL",
		"LINESYNC_PARSE_RULE", "LINESYNC_COMMENT_MARKER",
		config.LegacyAK, config.LegacySK, config.LegacyProjectID,
		config.LegacyZoneName, config.LegacyDomain,
	} {
		t.Setenv(k, "")
	}
	t.Setenv("LINESYNC_LOG_LEVEL", "error")
	t.Setenv("LINESYNC_PROVIDER", "webhook")
	t.Setenv("LINESYNC_WEBHOOK_URL", backendURL)
	t.Setenv("LINESYNC_ZONE", "example.com")
	t.Setenv("LINESYNC_DOMAIN", "www.example.com")
	t.Setenv("LINESYNC_LINES", "dianxin=file://"+source)
	t.Setenv("LINESYNC_DELAY", "0s")
}

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "targets.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing source: %v", err)
	}
	return path
}

func TestRunPass_CreatesMissingRecord(t *testing.T) {
	backend := &fakeBackend{zones: []webhook.Zone{{ID: "z1", Name: "example.com."}}}
	server := httptest.NewServer(backend)
	defer server.Close()

	setPassEnv(t, server.URL, writeSource(t, "cdn1.example.net\n"))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"run"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if backend.creates != 1 {
		t.Fatalf("expected 1 create, got %d", backend.creates)
	}
	created := backend.sets[0]
	if created.Name != "www.example.com." || created.Type != "CNAME" {
		t.Errorf("unexpected record set: %+v", created)
	}
	if created.Line == nil || *created.Line != "dianxin" {
		t.Errorf("expected line dianxin, got %v", created.Line)
	}
	if len(created.Records) != 1 || created.Records[0] != "cdn1.example.net." {
		t.Errorf("unexpected records: %v", created.Records)
	}
	if created.TTL != 60 {
		t.Errorf("expected TTL 60, got %d", created.TTL)
	}
	if !strings.Contains(out.String(), "created") {
		t.Errorf("summary missing outcome: %q", out.String())
	}

	// Second pass finds the record already correct.
	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"run"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if backend.creates != 1 {
		t.Errorf("expected no further creates, got %d", backend.creates)
	}
}

func TestRunPass_InvalidTargetKeepsRecord(t *testing.T) {
	backend := &fakeBackend{
		zones: []webhook.Zone{{ID: "z1", Name: "example.com."}},
		sets: []webhook.RecordSet{{
			ID:      "rs-existing",
			ZoneID:  "z1",
			Name:    "www.example.com.",
			Type:    "CNAME",
			Line:    provider.LinePtr("dianxin"),
			Records: []string{"cdn1.example.net."},
			TTL:     60,
		}},
	}
	server := httptest.NewServer(backend)
	defer server.Close()

	setPassEnv(t, server.URL, writeSource(t, "<html><body>maintenance</body></html>\n"))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"run"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if backend.deletes != 0 || backend.creates != 0 {
		t.Errorf("expected no mutations, got %d deletes and %d creates", backend.deletes, backend.creates)
	}
	if !strings.Contains(out.String(), "skipped") {
		t.Errorf("summary should report the line as skipped: %q", out.String())
	}
}

func TestRunPass_Plan(t *testing.T) {
	backend := &fakeBackend{zones: []webhook.Zone{{ID: "z1", Name: "example.com."}}}
	server := httptest.NewServer(backend)
	defer server.Close()

	setPassEnv(t, server.URL, writeSource(t, "cdn1.example.net\n"))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"plan"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if backend.creates != 0 {
		t.Errorf("plan must not create records, got %d creates", backend.creates)
	}
	if !strings.Contains(out.String(), "dry-run") {
		t.Errorf("summary should mention dry-run: %q", out.String())
	}
}

func TestRunPass_ZoneNotFound(t *testing.T) {
	backend := &fakeBackend{zones: []webhook.Zone{{ID: "z1", Name: "other.com."}}}
	server := httptest.NewServer(backend)
	defer server.Close()

	setPassEnv(t, server.URL, writeSource(t, "cdn1.example.net\n"))

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"run"})
	err := cmd.Execute()
	if got := exitCode(err); got != exitNoZone {
		t.Errorf("exit code = %d, want %d (err %v)", got, exitNoZone, err)
	}
	if backend.creates != 0 {
		t.Errorf("expected no creates, got %d", backend.creates)
	}
}

func TestRunPass_RejectedCredentials(t *testing.T) {
	backend := &fakeBackend{status: http.StatusUnauthorized}
	server := httptest.NewServer(backend)
	defer server.Close()

	setPassEnv(t, server.URL, writeSource(t, "cdn1.example.net\n"))

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"run"})
	err := cmd.Execute()
	if got := exitCode(err); got != exitConfig {
		t.Errorf("exit code = %d, want %d (err %v)", got, exitConfig, err)
	}
}

func TestRunPass_ConfigError(t *testing.T) {
	setPassEnv(t, "http://127.0.0.1:1", "/nonexistent")
	t.Setenv("LINESYNC_DOMAIN", "www.example.org")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"run"})
	err := cmd.Execute()
	if got := exitCode(err); got != exitConfig {
		t.Errorf("exit code = %d, want %d (err %v)", got, exitConfig, err)
	}
}
