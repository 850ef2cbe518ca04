package reconciler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"gitlab.bluewillows.net/root/linesync/internal/target"
	"gitlab.bluewillows.net/root/linesync/pkg/provider"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testMockProvider implements provider.Provider over an in-memory zone.
// Every mutating call is appended to calls for ordering assertions.
type testMockProvider struct {
	mu sync.Mutex

	zones   []provider.Zone
	records []provider.RecordSet
	nextID  int

	// ignoreLineFilter returns records on every line, like a provider whose
	// listing filter leaks default-line records.
	ignoreLineFilter bool

	calls []string
	lists int

	zonesErr  error
	listErr   error
	createErr map[string]error // by line
	updateErr map[string]error // by record id
	deleteErr map[string]error // by record id
}

func newTestMockProvider() *testMockProvider {
	return &testMockProvider{
		zones: []provider.Zone{
			{ID: "zone-other", Name: "example.org."},
			{ID: "zone-1", Name: "example.com."},
		},
		createErr: make(map[string]error),
		updateErr: make(map[string]error),
		deleteErr: make(map[string]error),
	}
}

func (m *testMockProvider) seed(rs provider.RecordSet) provider.RecordSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rs.ID == "" {
		m.nextID++
		rs.ID = fmt.Sprintf("seed-%d", m.nextID)
	}
	if rs.ZoneID == "" {
		rs.ZoneID = "zone-1"
	}
	if rs.TTL == 0 {
		rs.TTL = 300
	}
	m.records = append(m.records, rs)
	return rs
}

func (m *testMockProvider) Name() string { return "mock" }
func (m *testMockProvider) Type() string { return "mock" }

func (m *testMockProvider) Ping(_ context.Context) error { return nil }

func (m *testMockProvider) ListZones(_ context.Context) ([]provider.Zone, error) {
	if m.zonesErr != nil {
		return nil, m.zonesErr
	}
	return m.zones, nil
}

func (m *testMockProvider) ListRecordSets(_ context.Context, zoneID string, f provider.ListFilter) ([]provider.RecordSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	if m.listErr != nil {
		return nil, m.listErr
	}

	var out []provider.RecordSet
	for _, rs := range m.records {
		if rs.ZoneID != zoneID {
			continue
		}
		if f.Name != "" && rs.Name != f.Name {
			continue
		}
		if f.Type != "" && rs.Type != f.Type {
			continue
		}
		if f.Line != "" && !m.ignoreLineFilter && !rs.OnLine(f.Line) {
			continue
		}
		out = append(out, rs)
	}
	return out, nil
}

func (m *testMockProvider) CreateRecordSet(_ context.Context, zoneID string, req provider.CreateRequest) (provider.RecordSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, fmt.Sprintf("create %s %s", req.Line, req.Records[0]))
	if err := m.createErr[req.Line]; err != nil {
		return provider.RecordSet{}, err
	}

	m.nextID++
	rs := provider.RecordSet{
		ID:      fmt.Sprintf("new-%d", m.nextID),
		ZoneID:  zoneID,
		Name:    req.Name,
		Type:    req.Type,
		Records: append([]string(nil), req.Records...),
		TTL:     req.TTL,
	}
	if req.Line != "" {
		rs.Line = provider.LinePtr(req.Line)
	}
	m.records = append(m.records, rs)
	return rs, nil
}

func (m *testMockProvider) UpdateRecordSet(_ context.Context, _ string, recordID string, req provider.UpdateRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, fmt.Sprintf("update %s %s", recordID, req.Records[0]))
	if err := m.updateErr[recordID]; err != nil {
		return err
	}
	for i := range m.records {
		if m.records[i].ID == recordID {
			m.records[i].Records = append([]string(nil), req.Records...)
			m.records[i].TTL = req.TTL
			return nil
		}
	}
	return provider.ErrNotFound
}

func (m *testMockProvider) DeleteRecordSet(_ context.Context, _ string, recordID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "delete "+recordID)
	if err := m.deleteErr[recordID]; err != nil {
		return err
	}
	for i := range m.records {
		if m.records[i].ID == recordID {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return provider.ErrNotFound
}

func (m *testMockProvider) mutations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *testMockProvider) resetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// onLine returns the records currently attributed to line.
func (m *testMockProvider) onLine(line string) []provider.RecordSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []provider.RecordSet
	for _, rs := range m.records {
		if rs.OnLine(line) {
			out = append(out, rs)
		}
	}
	return out
}

// staticResolver returns fixed targets per line; lines without an entry
// resolve to "no target".
type staticResolver struct {
	targets map[string]string
	seen    []string
}

func (s *staticResolver) Resolve(_ context.Context, line, source string) target.Resolution {
	s.seen = append(s.seen, line)
	res := target.Resolution{Line: line, Source: source}
	if t, ok := s.targets[line]; ok {
		res.Target = t
		return res
	}
	res.Reason = target.ErrFetch
	return res
}

func testLines(ids ...string) []Line {
	lines := make([]Line, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, Line{ID: id, Source: "https://targets.example.net/" + id})
	}
	return lines
}

func newTestReconciler(p provider.Provider, r TargetResolver, cfg Config) *Reconciler {
	rec := New(p, r, WithConfig(cfg), WithLogger(quietLogger()))
	rec.sleep = func(context.Context, time.Duration) error { return nil }
	return rec
}

func cname(id, line, value string) provider.RecordSet {
	rs := provider.RecordSet{
		ID:      id,
		Name:    "www.example.com.",
		Type:    provider.RecordTypeCNAME,
		Records: []string{value},
	}
	if line != "" {
		rs.Line = provider.LinePtr(line)
	}
	return rs
}
