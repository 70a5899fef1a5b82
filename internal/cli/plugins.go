package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/soyeahso/hookpress/internal/host"
	"github.com/soyeahso/hookpress/internal/plugin"
	"github.com/spf13/cobra"
)

func newPluginsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List registered plugins and their state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHost(cmd.Context(), func(h *host.Host) error {
				infos := h.Plugins().Info()
				if asJSON {
					return printJSON(cmd.OutOrStdout(), infos)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tVERSION\tSTATE\tDESCRIPTION")
				for _, p := range infos {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Version, p.State, p.Description)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newHooksCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "hooks [name]",
		Short: "List registered hook handlers in dispatch order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHost(cmd.Context(), func(h *host.Host) error {
				names := h.Hooks().Hooks()
				if len(args) == 1 {
					names = []string{args[0]}
				}

				type hookEntries struct {
					Hook     string `json:"hook"`
					Handlers any    `json:"handlers"`
				}
				var all []hookEntries
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				if !asJSON {
					fmt.Fprintln(tw, "HOOK\tKIND\tPRIORITY\tOWNER\tID")
				}
				for _, name := range names {
					entries := h.Hooks().Entries(name)
					if asJSON {
						all = append(all, hookEntries{Hook: name, Handlers: entries})
						continue
					}
					for _, e := range entries {
						owner := e.Owner
						if owner == "" {
							owner = "-"
						}
						fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", e.Hook, e.Kind, e.Priority, owner, e.ID)
					}
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), all)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <plugin-id>",
		Short: "Print a plugin's settings schema as JSON Schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHost(cmd.Context(), func(h *host.Host) error {
				p := h.Plugins().Get(args[0])
				if p == nil {
					return fmt.Errorf("%w: %s", plugin.ErrNotFound, args[0])
				}
				schema := p.ConfigSchema()
				if schema == nil {
					return fmt.Errorf("plugin %s has no settings", args[0])
				}
				return printJSON(cmd.OutOrStdout(), schema)
			})
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
