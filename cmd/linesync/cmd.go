package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linesync",
		Short: "Keep per-ISP-line CNAME records in sync with published targets",
		Long: `linesync reconciles one domain's line-scoped CNAME records against the
target host published for each ISP line. Without a subcommand it runs a
single pass, the same as "linesync run".`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPass(cmd, false)
		},
	}

	cmd.PersistentFlags().String("config", "", "Path to a YAML or TOML config file (env LINESYNC_CONFIG)")

	cmd.AddCommand(newCmdRun())
	cmd.AddCommand(newCmdPlan())
	cmd.AddCommand(newCmdServe())
	cmd.AddCommand(newCmdVersion())
	return cmd
}

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}
