package main

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/linesync/internal/metrics"
	"gitlab.bluewillows.net/root/linesync/pkg/provider"
)

func newCmdRun() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one reconciliation pass and print a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPass(cmd, false)
		},
	}
}

func newCmdPlan() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show what a pass would change without changing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPass(cmd, true)
		},
	}
}

// runPass executes a single pass. Only configuration and zone resolution
// failures are returned as errors; line failures are in the summary.
// Rejected credentials are reported as a configuration error.
func runPass(cmd *cobra.Command, dryRun bool) error {
	cfg, logger, err := loadConfig(configPath(cmd))
	if err != nil {
		return err
	}
	metrics.SetBuildInfo(Version, runtime.Version())

	a, err := newApp(cfg, logger, dryRun)
	if err != nil {
		return err
	}

	logger.Info("linesync starting",
		slog.String("version", Version),
		slog.String("provider", a.provider.Name()),
		slog.String("zone", cfg.Zone),
		slog.String("domain", cfg.Domain),
		slog.Any("lines", cfg.LineIDs()),
	)

	result, err := a.reconciler.Reconcile(cmd.Context(), cfg.Zone, cfg.Domain, a.lines)
	if result != nil {
		fmt.Fprint(cmd.OutOrStdout(), result.Summary())
	}
	if err != nil {
		if provider.IsZoneNotFound(err) {
			return zoneError(err)
		}
		if provider.IsUnauthorized(err) {
			return configError(fmt.Errorf("provider rejected credentials: %w", err))
		}
		return fmt.Errorf("reconciliation aborted: %w", err)
	}
	return nil
}
