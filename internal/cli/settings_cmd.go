package cli

import (
	"fmt"

	"github.com/soyeahso/hookpress/internal/host"
	"github.com/spf13/cobra"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change persisted plugin settings",
	}

	cmd.AddCommand(newSettingsGetCmd())
	cmd.AddCommand(newSettingsSetCmd())
	cmd.AddCommand(newSettingsResetCmd())
	cmd.AddCommand(newSettingsHistoryCmd())

	return cmd
}

func newSettingsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <plugin-id> [key]",
		Short: "Print a plugin's effective settings",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHost(cmd.Context(), func(h *host.Host) error {
				doc, err := h.Settings(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if len(args) == 2 {
					val, ok := doc[args[1]]
					if !ok {
						return fmt.Errorf("key %q not found", args[1])
					}
					return printValue(cmd.OutOrStdout(), val)
				}
				return printValue(cmd.OutOrStdout(), doc)
			})
		},
	}
}

func newSettingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <plugin-id> <key> <value>",
		Short: "Change and persist one plugin setting",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHost(cmd.Context(), func(h *host.Host) error {
				value := parseValue(args[2])
				if _, err := h.SetSetting(cmd.Context(), args[0], args[1], value); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Set %s.%s = %v\n", args[0], args[1], value)
				return nil
			})
		},
	}
}

func newSettingsResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <plugin-id>",
		Short: "Drop persisted settings and fall back to defaults and the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHost(cmd.Context(), func(h *host.Host) error {
				if err := h.ResetSettings(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %s\n", args[0])
				return nil
			})
		},
	}
}

func newSettingsHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <plugin-id>",
		Short: "List saved revisions of a plugin's settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHost(cmd.Context(), func(h *host.Host) error {
				if h.Store() == nil {
					return host.ErrStoreDisabled
				}
				hist, err := h.Store().History(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, rec := range hist {
					fmt.Fprintf(out, "v%d  %s  %s  %s\n",
						rec.Version, rec.UpdatedAt.Format("2006-01-02 15:04:05"), rec.Revision, rec.Data)
				}
				return nil
			})
		},
	}
}
