package provider

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// HTTPConfig carries shared HTTP client settings handed to provider factories.
type HTTPConfig struct {
	Timeout       time.Duration
	TLSSkipVerify bool
	UserAgent     string
	Logger        *slog.Logger
}

// FactoryConfig is everything a factory needs to build a provider instance.
type FactoryConfig struct {
	// Name is the instance name used in logs and metrics.
	Name string

	// ProviderConfig holds provider-specific settings with upper-case keys
	// (e.g., "AK", "SK", "PROJECT_ID", "URL").
	ProviderConfig map[string]string

	// HTTP is the shared HTTP client configuration.
	HTTP HTTPConfig
}

// Factory creates a provider instance from configuration.
type Factory func(cfg FactoryConfig) (Provider, error)

// Registry maps provider type names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	logger    *slog.Logger
}

// NewRegistry creates an empty provider registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		factories: make(map[string]Factory),
		logger:    logger,
	}
}

// RegisterFactory registers a provider factory for a given type.
// Registering the same type twice replaces the earlier factory.
func (r *Registry) RegisterFactory(typeName string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[typeName] = factory
	r.logger.Debug("registered provider factory", slog.String("type", typeName))
}

// Types returns the registered provider types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for name := range r.factories {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// Create builds a provider of the given type.
func (r *Registry) Create(typeName string, cfg FactoryConfig) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[typeName]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider type: %q (known types: %v)", typeName, r.Types())
	}

	if cfg.ProviderConfig == nil {
		cfg.ProviderConfig = map[string]string{}
	}
	if cfg.HTTP.Logger == nil {
		cfg.HTTP.Logger = r.logger
	}

	p, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating provider %s: %w", cfg.Name, err)
	}

	r.logger.Info("created provider",
		slog.String("name", p.Name()),
		slog.String("type", p.Type()),
	)

	return p, nil
}
