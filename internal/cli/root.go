package cli

import (
	"context"
	"io"

	"github.com/soyeahso/hookpress/internal/config"
	"github.com/soyeahso/hookpress/internal/host"
	"github.com/soyeahso/hookpress/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths     config.Paths
	cfg       config.Config
	log       *logging.Logger
	logCloser io.Closer
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hookpress",
		Short: "Hook-driven content rendering with plugins",
		Long:  "hookpress renders content through action and filter hooks registered by plugins.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}

			cfg, err = config.Load(paths.Config)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}

			rot := logging.DefaultRotation()
			rot.MaxSizeMB = cfg.Logging.MaxSizeMB
			rot.MaxBackups = cfg.Logging.MaxBackups
			rot.MaxAgeDays = cfg.Logging.MaxAgeDays
			if cfg.Logging.Compress != nil {
				rot.Compress = *cfg.Logging.Compress
			}
			log, logCloser, err = logging.NewWithFile(cfg.Logging.File, cfg.Logging.Level, rot)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logCloser == nil {
				return nil
			}
			return logCloser.Close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.hookpress/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newShortcodeCmd())
	cmd.AddCommand(newWidgetCmd())
	cmd.AddCommand(newHooksCmd())
	cmd.AddCommand(newPluginsCmd())
	cmd.AddCommand(newSchemaCmd())
	cmd.AddCommand(newSettingsCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// openHost builds a host from the loaded config. The caller must Close it.
func openHost(ctx context.Context) (*host.Host, error) {
	if cfg.Store.Path == "" && !cfg.Store.Disabled {
		if err := paths.EnsureDirs(); err != nil {
			return nil, err
		}
	}
	return host.New(ctx, cfg, log, host.WithConfigPath(paths.Config))
}

// withHost runs fn against a freshly built host and closes it afterwards.
func withHost(ctx context.Context, fn func(h *host.Host) error) error {
	h, err := openHost(ctx)
	if err != nil {
		return err
	}
	defer h.Close(ctx)
	return fn(h)
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
