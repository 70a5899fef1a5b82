package cli

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/soyeahso/hookpress/internal/config"
	"github.com/soyeahso/hookpress/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show hookpress paths and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			bi := version.Get()
			fmt.Fprintf(out, "hookpress %s (commit %s)\n\n", bi.Version, bi.Commit)

			// Show paths
			configState := ""
			if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
				configState = " (not found, using defaults)"
			}
			fmt.Fprintf(out, "Config:  %s%s\n", paths.Config, configState)
			fmt.Fprintf(out, "Data:    %s\n", paths.Data)
			fmt.Fprintf(out, "Logs:    %s\n", paths.Logs)
			fmt.Fprintln(out)

			// Logging
			logFile := cfg.Logging.File
			if logFile == "" {
				logFile = "(console only)"
			}
			fmt.Fprintf(out, "Logging: level=%s file=%s\n", cfg.Logging.Level, logFile)

			// Store
			switch {
			case cfg.Store.Disabled:
				fmt.Fprintln(out, "Store:   disabled")
			case cfg.Store.Path != "":
				fmt.Fprintf(out, "Store:   %s\n", cfg.Store.Path)
			default:
				fmt.Fprintf(out, "Store:   %s\n", paths.DefaultDB())
			}

			// Plugins
			if len(cfg.Plugins) == 0 {
				fmt.Fprintln(out, "Plugins: (built-in defaults)")
			}
			for _, id := range slices.Sorted(maps.Keys(cfg.Plugins)) {
				pc := cfg.Plugins[id]
				fmt.Fprintf(out, "Plugin:  id=%s enabled=%v settings=%d\n", id, pc.IsEnabled(), len(pc.Settings))
			}

			// Validation
			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}
