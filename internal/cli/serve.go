package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/soyeahso/hookpress/internal/config"
	"github.com/soyeahso/hookpress/internal/gateway"
	"github.com/soyeahso/hookpress/internal/host"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port  int
		bind  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the preview gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return withHost(ctx, func(h *host.Host) error {
				if watch {
					go func() {
						if err := h.Watch(ctx); err != nil && ctx.Err() == nil {
							log.Error().Err(err).Msg("config watcher stopped")
						}
					}()
				}

				srv := gateway.New(cfg.Gateway, h, log)
				go func() {
					select {
					case <-srv.Ready():
						fmt.Fprintf(cmd.OutOrStdout(), "hookpress gateway listening on %s\n", srv.Addr())
					case <-ctx.Done():
					}
				}()
				return srv.Start(ctx)
			})
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "gateway port (overrides config)")
	cmd.Flags().StringVar(&bind, "bind", "", "bind mode: loopback, lan, custom (overrides config)")
	cmd.Flags().BoolVar(&watch, "watch", true, "reload plugins when the config file changes")
	return cmd
}
