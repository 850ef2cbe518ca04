package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"gitlab.bluewillows.net/root/linesync/pkg/provider"
)

func TestSetBuildInfo(t *testing.T) {
	SetBuildInfo("v0.9.0", "go1.23")
	SetBuildInfo("v1.0.0", "go1.24")

	if count := testutil.CollectAndCount(BuildInfo); count != 1 {
		t.Errorf("expected 1 series after re-setting build info, got %d", count)
	}
	if v := testutil.ToFloat64(BuildInfo.WithLabelValues("v1.0.0", "go1.24")); v != 1 {
		t.Errorf("expected value 1, got %f", v)
	}
}

func TestRunAndLineMetrics(t *testing.T) {
	RunsTotal.Reset()
	LineOutcomesTotal.Reset()
	TargetFetchesTotal.Reset()

	RunsTotal.WithLabelValues("success").Inc()
	RunsTotal.WithLabelValues("partial").Inc()
	LineOutcomesTotal.WithLabelValues("dianxin", "created").Inc()
	LineOutcomesTotal.WithLabelValues("dianxin", "unchanged").Add(2)
	TargetFetchesTotal.WithLabelValues("yidong", "missing").Inc()
	RunDuration.Observe(4.2)

	if v := testutil.ToFloat64(LineOutcomesTotal.WithLabelValues("dianxin", "unchanged")); v != 2 {
		t.Errorf("unchanged = %f, want 2", v)
	}
	if v := testutil.ToFloat64(RunsTotal.WithLabelValues("partial")); v != 1 {
		t.Errorf("partial runs = %f, want 1", v)
	}
	if v := testutil.ToFloat64(TargetFetchesTotal.WithLabelValues("yidong", "missing")); v != 1 {
		t.Errorf("missing fetches = %f, want 1", v)
	}
}

func TestStatusLabel(t *testing.T) {
	if StatusLabel(nil) != "success" || StatusLabel(errors.New("x")) != "error" {
		t.Error("unexpected status labels")
	}
}

type stubProvider struct {
	pingErr error
}

func (s stubProvider) Name() string                 { return "stub" }
func (s stubProvider) Type() string                 { return "stub" }
func (s stubProvider) Ping(context.Context) error   { return s.pingErr }
func (s stubProvider) ListZones(context.Context) ([]provider.Zone, error) {
	return []provider.Zone{{ID: "z", Name: "example.com."}}, nil
}
func (s stubProvider) ListRecordSets(context.Context, string, provider.ListFilter) ([]provider.RecordSet, error) {
	return nil, errors.New("boom")
}
func (s stubProvider) CreateRecordSet(context.Context, string, provider.CreateRequest) (provider.RecordSet, error) {
	return provider.RecordSet{ID: "new"}, nil
}
func (s stubProvider) UpdateRecordSet(context.Context, string, string, provider.UpdateRequest) error {
	return nil
}
func (s stubProvider) DeleteRecordSet(context.Context, string, string) error { return nil }

func TestInstrumentProvider(t *testing.T) {
	ProviderAPIRequestsTotal.Reset()
	ProviderHealthy.Reset()
	ctx := context.Background()

	p := InstrumentProvider(stubProvider{})
	if InstrumentProvider(p) != p {
		t.Error("instrumenting twice should return the same wrapper")
	}

	if _, err := p.ListZones(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := p.ListRecordSets(ctx, "z", provider.ListFilter{}); err == nil {
		t.Fatal("expected stub error to pass through")
	}
	if _, err := p.CreateRecordSet(ctx, "z", provider.CreateRequest{}); err != nil {
		t.Fatal(err)
	}
	_ = p.UpdateRecordSet(ctx, "z", "id", provider.UpdateRequest{})
	_ = p.DeleteRecordSet(ctx, "z", "id")
	_ = p.Ping(ctx)

	checks := []struct {
		op, status string
	}{
		{"list_zones", "success"},
		{"list_record_sets", "error"},
		{"create", "success"},
		{"update", "success"},
		{"delete", "success"},
		{"ping", "success"},
	}
	for _, c := range checks {
		if v := testutil.ToFloat64(ProviderAPIRequestsTotal.WithLabelValues("stub", c.op, c.status)); v != 1 {
			t.Errorf("%s/%s = %f, want 1", c.op, c.status, v)
		}
	}
	if v := testutil.ToFloat64(ProviderHealthy.WithLabelValues("stub")); v != 1 {
		t.Errorf("healthy = %f, want 1", v)
	}

	_ = InstrumentProvider(stubProvider{pingErr: errors.New("down")}).Ping(ctx)
	if v := testutil.ToFloat64(ProviderHealthy.WithLabelValues("stub")); v != 0 {
		t.Errorf("healthy = %f after failed ping, want 0", v)
	}
}

func TestMetricNames(t *testing.T) {
	collectors := []prometheus.Collector{
		BuildInfo,
		RunsTotal,
		RunDuration,
		LastRunTimestamp,
		LineOutcomesTotal,
		RecordOperationsTotal,
		TargetFetchesTotal,
		ProviderAPIRequestsTotal,
		ProviderAPIDuration,
		ProviderHealthy,
	}

	for _, c := range collectors {
		ch := make(chan *prometheus.Desc, 10)
		c.Describe(ch)
		close(ch)

		for desc := range ch {
			if !strings.Contains(desc.String(), `"linesync_`) {
				t.Errorf("metric %s does not use the linesync_ prefix", desc.String())
			}
		}
	}
}
