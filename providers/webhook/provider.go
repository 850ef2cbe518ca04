package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"gitlab.bluewillows.net/root/linesync/pkg/httputil"
	"gitlab.bluewillows.net/root/linesync/pkg/provider"
)

// TypeName is the registry name of this provider.
const TypeName = "webhook"

// Provider implements provider.Provider for webhook-based DNS.
type Provider struct {
	name       string
	client     *Client
	httpClient *http.Client
	logger     *slog.Logger
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

// WithProviderHTTPClient sets a pre-configured HTTP client for the provider.
func WithProviderHTTPClient(client *http.Client) ProviderOption {
	return func(p *Provider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// New creates a new webhook provider instance.
func New(name string, config *Config, opts ...ProviderOption) (*Provider, error) {
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

	p.client = NewClient(config, WithLogger(p.logger), WithHTTPClient(p.httpClient))
	return p, nil
}

// Factory returns a provider.Factory for creating webhook provider instances.
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

		if cfg.HTTP.TLSSkipVerify && cfg.HTTP.Logger != nil {
			cfg.HTTP.Logger.Warn("TLS certificate verification disabled for webhook provider",
				slog.String("provider", cfg.Name),
				slog.String("url", providerCfg.URL),
			)
		}

		return New(cfg.Name, providerCfg,
			WithProviderHTTPClient(httpClient),
			WithProviderLogger(cfg.HTTP.Logger),
		)
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

// Ping checks connectivity to the webhook endpoint.
func (p *Provider) Ping(ctx context.Context) error {
	return provider.WrapError(p.name, "ping", p.client.Ping(ctx))
}

// ListZones returns the zones the webhook manages.
func (p *Provider) ListZones(ctx context.Context) ([]provider.Zone, error) {
	zones, err := p.client.ListZones(ctx)
	if err != nil {
		return nil, provider.WrapError(p.name, "list zones", err)
	}

	out := make([]provider.Zone, 0, len(zones))
	for _, z := range zones {
		out = append(out, provider.Zone{ID: z.ID, Name: z.Name})
	}
	return out, nil
}

// ListRecordSets returns record sets matching filter.
func (p *Provider) ListRecordSets(ctx context.Context, zoneID string, filter provider.ListFilter) ([]provider.RecordSet, error) {
	sets, err := p.client.ListRecordSets(ctx, zoneID, filter)
	if err != nil {
		return nil, provider.WrapError(p.name, "list record sets", err)
	}

	out := make([]provider.RecordSet, 0, len(sets))
	for _, s := range sets {
		out = append(out, fromWire(zoneID, s))
	}
	return out, nil
}

// CreateRecordSet creates a record set through the webhook.
func (p *Provider) CreateRecordSet(ctx context.Context, zoneID string, req provider.CreateRequest) (provider.RecordSet, error) {
	set := RecordSet{
		ZoneID:  zoneID,
		Name:    req.Name,
		Type:    string(req.Type),
		Records: req.Records,
		TTL:     req.TTL,
	}
	if req.Line != "" {
		set.Line = provider.LinePtr(req.Line)
	}

	created, err := p.client.CreateRecordSet(ctx, set)
	if err != nil {
		return provider.RecordSet{}, provider.WrapError(p.name, "create", err)
	}

	// Webhooks may answer 201/204 without echoing the record.
	if created.Name == "" {
		created.Name, created.Type, created.Records, created.TTL, created.Line =
			set.Name, set.Type, set.Records, set.TTL, set.Line
	}

	p.logger.Info("created record set via webhook",
		slog.String("provider", p.name),
		slog.String("name", req.Name),
		slog.String("line", req.Line),
		slog.Any("records", req.Records),
	)
	return fromWire(zoneID, created), nil
}

// UpdateRecordSet replaces the values of a record set.
func (p *Provider) UpdateRecordSet(ctx context.Context, zoneID, recordID string, req provider.UpdateRequest) error {
	err := p.client.UpdateRecordSet(ctx, recordID, RecordSet{
		ZoneID:  zoneID,
		Name:    req.Name,
		Type:    string(req.Type),
		Records: req.Records,
		TTL:     req.TTL,
	})
	if err != nil {
		return provider.WrapError(p.name, "update", err)
	}

	p.logger.Info("updated record set via webhook",
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

	p.logger.Info("deleted record set via webhook",
		slog.String("provider", p.name),
		slog.String("record_id", recordID),
	)
	return nil
}

func fromWire(zoneID string, s RecordSet) provider.RecordSet {
	if s.ZoneID != "" {
		zoneID = s.ZoneID
	}
	return provider.RecordSet{
		ID:      s.ID,
		ZoneID:  zoneID,
		Name:    s.Name,
		Type:    provider.RecordType(s.Type),
		Line:    s.Line,
		Records: s.Records,
		TTL:     s.TTL,
	}
}

var _ provider.Provider = (*Provider)(nil)
