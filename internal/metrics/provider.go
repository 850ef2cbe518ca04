package metrics

import (
	"context"
	"time"

	"gitlab.bluewillows.net/root/linesync/pkg/provider"
)

// instrumented wraps a provider and records API request metrics.
type instrumented struct {
	provider.Provider
}

// InstrumentProvider returns p wrapped so that every call is counted and timed.
func InstrumentProvider(p provider.Provider) provider.Provider {
	if _, ok := p.(instrumented); ok {
		return p
	}
	return instrumented{Provider: p}
}

func (i instrumented) observe(op string, start time.Time, err error) {
	name := i.Provider.Name()
	ProviderAPIRequestsTotal.WithLabelValues(name, op, StatusLabel(err)).Inc()
	ProviderAPIDuration.WithLabelValues(name, op).Observe(time.Since(start).Seconds())
}

func (i instrumented) Ping(ctx context.Context) error {
	start := time.Now()
	err := i.Provider.Ping(ctx)
	i.observe("ping", start, err)

	healthy := 0.0
	if err == nil {
		healthy = 1
	}
	ProviderHealthy.WithLabelValues(i.Provider.Name()).Set(healthy)
	return err
}

func (i instrumented) ListZones(ctx context.Context) ([]provider.Zone, error) {
	start := time.Now()
	zones, err := i.Provider.ListZones(ctx)
	i.observe("list_zones", start, err)
	return zones, err
}

func (i instrumented) ListRecordSets(ctx context.Context, zoneID string, filter provider.ListFilter) ([]provider.RecordSet, error) {
	start := time.Now()
	sets, err := i.Provider.ListRecordSets(ctx, zoneID, filter)
	i.observe("list_record_sets", start, err)
	return sets, err
}

func (i instrumented) CreateRecordSet(ctx context.Context, zoneID string, req provider.CreateRequest) (provider.RecordSet, error) {
	start := time.Now()
	set, err := i.Provider.CreateRecordSet(ctx, zoneID, req)
	i.observe("create", start, err)
	return set, err
}

func (i instrumented) UpdateRecordSet(ctx context.Context, zoneID, recordID string, req provider.UpdateRequest) error {
	start := time.Now()
	err := i.Provider.UpdateRecordSet(ctx, zoneID, recordID, req)
	i.observe("update", start, err)
	return err
}

func (i instrumented) DeleteRecordSet(ctx context.Context, zoneID, recordID string) error {
	start := time.Now()
	err := i.Provider.DeleteRecordSet(ctx, zoneID, recordID)
	i.observe("delete", start, err)
	return err
}
