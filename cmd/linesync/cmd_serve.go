package main

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/linesync/internal/health"
	"gitlab.bluewillows.net/root/linesync/internal/metrics"
)

func newCmdServe() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run passes periodically and serve health and metrics endpoints",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().Bool("dry-run", false, "Compute and log changes without applying them")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(configPath(cmd))
	if err != nil {
		return err
	}
	metrics.SetBuildInfo(Version, runtime.Version())

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	a, err := newApp(cfg, logger, dryRun)
	if err != nil {
		return err
	}

	logger.Info("linesync starting",
		slog.String("version", Version),
		slog.String("build_date", BuildDate),
		slog.String("go_version", runtime.Version()),
		slog.String("provider", a.provider.Name()),
		slog.String("domain", cfg.Domain),
		slog.Duration("interval", cfg.Interval),
		slog.Bool("dry_run", a.reconciler.Config().DryRun),
	)

	healthServer := health.New(cfg.HealthPort,
		health.WithLogger(logger),
		health.WithResults(a.reconciler),
	)
	p := a.provider
	healthServer.RegisterChecker("provider:"+p.Name(), func(ctx context.Context) error {
		return p.Ping(ctx)
	})
	healthServer.RegisterDegradedChecker("last_pass", health.LastPassChecker(a.reconciler))

	if err := healthServer.Start(); err != nil {
		return fmt.Errorf("starting health server: %w", err)
	}

	ctx := cmd.Context()
	pass := func() {
		if _, err := a.reconciler.Reconcile(ctx, cfg.Zone, cfg.Domain, a.lines); err != nil {
			logger.Error("reconciliation pass aborted", slog.String("error", err.Error()))
		}
	}

	logger.Info("running initial reconciliation")
	pass()

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			logger.Debug("periodic reconciliation triggered", slog.Duration("interval", cfg.Interval))
			pass()
		}
	}

	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("health server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("linesync shutdown complete")
	return nil
}
