package main

import (
	"fmt"
	"log/slog"
	"os"

	"gitlab.bluewillows.net/root/linesync/internal/config"
	"gitlab.bluewillows.net/root/linesync/internal/metrics"
	"gitlab.bluewillows.net/root/linesync/internal/reconciler"
	"gitlab.bluewillows.net/root/linesync/internal/target"
	"gitlab.bluewillows.net/root/linesync/pkg/httputil"
	"gitlab.bluewillows.net/root/linesync/pkg/provider"
	"gitlab.bluewillows.net/root/linesync/providers/huaweicloud"
	"gitlab.bluewillows.net/root/linesync/providers/webhook"
)

// app holds everything a pass needs, built once from configuration.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	provider   provider.Provider
	reconciler *reconciler.Reconciler
	lines      []reconciler.Line
}

func setupLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func registerProviderFactories(registry *provider.Registry) {
	// Huawei Cloud DNS (public zones with ISP line resolution)
	registry.RegisterFactory(huaweicloud.TypeName, huaweicloud.Factory())

	// Generic webhook for custom line-aware backends
	registry.RegisterFactory(webhook.TypeName, webhook.Factory())
}

// newApp wires the provider, target resolver and reconciler. dryRun forces
// dry-run mode regardless of configuration.
func newApp(cfg *config.Config, logger *slog.Logger, dryRun bool) (*app, error) {
	registry := provider.NewRegistry(logger)
	registerProviderFactories(registry)

	p, err := registry.Create(cfg.Provider, provider.FactoryConfig{
		Name:           cfg.InstanceName(),
		ProviderConfig: cfg.ProviderConfig,
		HTTP: provider.HTTPConfig{
			Timeout:       cfg.APITimeout,
			TLSSkipVerify: cfg.TLSSkipVerify,
			UserAgent:     "linesync/" + Version,
			Logger:        logger,
		},
	})
	if err != nil {
		return nil, configError(err)
	}
	p = metrics.InstrumentProvider(p)

	rule, err := target.ParseParseRule(cfg.ParseRule)
	if err != nil {
		return nil, configError(err)
	}
	strategy, err := reconciler.ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, configError(err)
	}
	inspect, err := reconciler.ParseInspectMode(cfg.InspectMode)
	if err != nil {
		return nil, configError(err)
	}

	fetchClient := httputil.NewClient(&httputil.ClientConfig{
		Timeout:   cfg.FetchTimeout,
		UserAgent: "linesync/" + Version,
		Logger:    logger,
	})
	resolver := target.NewResolver(
		target.WithLogger(logger),
		target.WithParseRule(rule),
		target.WithCommentMarker(cfg.CommentMarker),
		target.WithTimeout(cfg.FetchTimeout),
		target.WithFetcher("http", &target.HTTPFetcher{Client: fetchClient}),
		target.WithFetcher("https", &target.HTTPFetcher{Client: fetchClient}),
		target.WithFetcher("sftp", &target.SFTPFetcher{Config: cfg.SFTP, Logger: logger}),
	)

	rec := reconciler.New(p, resolver,
		reconciler.WithLogger(logger),
		reconciler.WithConfig(reconciler.Config{
			DryRun:      cfg.DryRun || dryRun,
			Strategy:    strategy,
			InspectMode: inspect,
			TTL:         cfg.TTL,
			LineDelay:   cfg.LineDelay,
		}),
	)

	lines := make([]reconciler.Line, 0, len(cfg.Lines))
	for _, l := range cfg.Lines {
		lines = append(lines, reconciler.Line{ID: l.ID, Name: l.Name, Source: l.Source})
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		provider:   p,
		reconciler: rec,
		lines:      lines,
	}, nil
}

// loadConfig loads configuration and sets up the default logger.
func loadConfig(path string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, configError(fmt.Errorf("loading configuration: %w", err))
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
