package cli

import (
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/soyeahso/hookpress/internal/host"
	"github.com/spf13/cobra"
)

func newRenderCmd() *cobra.Command {
	var bodyOnly bool

	cmd := &cobra.Command{
		Use:   "render [content]",
		Short: "Render content through the head and content hooks",
		Long:  "Render content through the head and content hooks. Without an argument the content is read from stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var content string
			if len(args) == 1 {
				content = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				content = strings.TrimRight(string(data), "\n")
			}

			return withHost(cmd.Context(), func(h *host.Host) error {
				head, body := h.Render(cmd.Context(), content)
				out := cmd.OutOrStdout()
				if !bodyOnly {
					fmt.Fprintf(out, "<head>\n%s</head>\n", head)
				}
				fmt.Fprintln(out, body)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&bodyOnly, "body-only", false, "omit the rendered head")
	return cmd
}

func newShortcodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shortcode <name>",
		Short: "Render a shortcode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHost(cmd.Context(), func(h *host.Host) error {
				out, ok := h.Shortcode(cmd.Context(), args[0])
				if !ok {
					return fmt.Errorf("no handler for shortcode [%s]", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func newWidgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "widget <name>",
		Short: "Render a widget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHost(cmd.Context(), func(h *host.Host) error {
				out, ok := h.Widget(cmd.Context(), args[0])
				if !ok {
					return fmt.Errorf("no handler for widget %q", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep plugins active and reload them when the config file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return withHost(ctx, func(h *host.Host) error {
				log.Info().Str("config", paths.Config).Msg("watching for config changes, press Ctrl+C to stop")
				return h.Watch(ctx)
			})
		},
	}
}
