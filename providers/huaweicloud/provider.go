package huaweicloud

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"gitlab.bluewillows.net/root/linesync/pkg/httputil"
	"gitlab.bluewillows.net/root/linesync/pkg/provider"
)

// TypeName is the registry name of this provider.
const TypeName = "huaweicloud"

// Provider implements provider.Provider for Huawei Cloud DNS.
type Provider struct {
	name   string
	client *Client
	logger *slog.Logger
}

// ProviderOption is a functional option for configuring the Provider.
type ProviderOption func(*Provider)

// WithProviderLogger sets a custom logger for the provider.
func WithProviderLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Huawei Cloud DNS provider instance.
// httpClient may be nil, in which case httputil.DefaultClient is used.
func New(name string, config *Config, httpClient *http.Client, opts ...ProviderOption) (*Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		name:   name,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if httpClient == nil {
		httpClient = httputil.DefaultClient()
	}
	p.client = NewClient(config, WithHTTPClient(httpClient), WithLogger(p.logger))

	return p, nil
}

// Factory returns a provider.Factory for registering with provider.Registry.
func Factory() provider.Factory {
	return func(cfg provider.FactoryConfig) (provider.Provider, error) {
		providerCfg, err := LoadConfigFromMap(cfg.Name, cfg.ProviderConfig)
		if err != nil {
			return nil, err
		}

		httpClient := httputil.NewClient(&httputil.ClientConfig{
			Timeout:       cfg.HTTP.Timeout,
			TLSSkipVerify: cfg.HTTP.TLSSkipVerify,
			UserAgent:     cfg.HTTP.UserAgent,
			Logger:        cfg.HTTP.Logger,
		})

		return New(cfg.Name, providerCfg, httpClient, WithProviderLogger(cfg.HTTP.Logger))
	}
}

// Name returns the provider instance name.
func (p *Provider) Name() string {
	return p.name
}

// Type returns the provider type.
func (p *Provider) Type() string {
	return TypeName
}

// Ping checks connectivity and credentials.
func (p *Provider) Ping(ctx context.Context) error {
	return provider.WrapError(p.name, "ping", p.client.Ping(ctx))
}

// ListZones returns every public zone visible to the credentials.
func (p *Provider) ListZones(ctx context.Context) ([]provider.Zone, error) {
	results, err := p.client.ListZones(ctx)
	if err != nil {
		return nil, provider.WrapError(p.name, "list zones", err)
	}

	zones := make([]provider.Zone, 0, len(results))
	for _, z := range results {
		zones = append(zones, provider.Zone{ID: z.ID, Name: z.Name})
	}
	return zones, nil
}

// ListRecordSets returns record sets matching filter.
func (p *Provider) ListRecordSets(ctx context.Context, zoneID string, filter provider.ListFilter) ([]provider.RecordSet, error) {
	results, err := p.client.ListRecordSets(ctx, zoneID, filter)
	if err != nil {
		return nil, provider.WrapError(p.name, "list record sets", err)
	}

	sets := make([]provider.RecordSet, 0, len(results))
	for _, r := range results {
		sets = append(sets, toRecordSet(zoneID, r))
	}
	return sets, nil
}

// CreateRecordSet creates a record set.
func (p *Provider) CreateRecordSet(ctx context.Context, zoneID string, req provider.CreateRequest) (provider.RecordSet, error) {
	created, err := p.client.CreateRecordSet(ctx, zoneID, req)
	if err != nil {
		return provider.RecordSet{}, provider.WrapError(p.name, "create", err)
	}

	p.logger.Info("created record set",
		slog.String("provider", p.name),
		slog.String("name", req.Name),
		slog.String("type", string(req.Type)),
		slog.String("line", req.Line),
		slog.Any("records", req.Records),
		slog.String("record_id", created.ID),
	)
	return toRecordSet(zoneID, created), nil
}

// UpdateRecordSet replaces the values of a record set.
func (p *Provider) UpdateRecordSet(ctx context.Context, zoneID, recordID string, req provider.UpdateRequest) error {
	if err := p.client.UpdateRecordSet(ctx, zoneID, recordID, req); err != nil {
		return provider.WrapError(p.name, "update", err)
	}

	p.logger.Info("updated record set",
		slog.String("provider", p.name),
		slog.String("record_id", recordID),
		slog.Any("records", req.Records),
	)
	return nil
}

// DeleteRecordSet removes a record set by id.
func (p *Provider) DeleteRecordSet(ctx context.Context, zoneID, recordID string) error {
	if err := p.client.DeleteRecordSet(ctx, zoneID, recordID); err != nil {
		return provider.WrapError(p.name, "delete", err)
	}

	p.logger.Info("deleted record set",
		slog.String("provider", p.name),
		slog.String("record_id", recordID),
	)
	return nil
}

func toRecordSet(zoneID string, r recordSet) provider.RecordSet {
	if r.ZoneID != "" {
		zoneID = r.ZoneID
	}
	return provider.RecordSet{
		ID:      r.ID,
		ZoneID:  zoneID,
		Name:    r.Name,
		Type:    provider.RecordType(r.Type),
		Line:    r.Line,
		Records: r.Records,
		TTL:     r.TTL,
	}
}

var _ provider.Provider = (*Provider)(nil)
