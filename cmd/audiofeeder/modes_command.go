package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"audiofeeder/internal/engine"
	"audiofeeder/internal/rendercache"
)

func newEntriesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "entries",
		Short: "List library entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine.Engine, _ *rendercache.Manager) error {
				entries, err := eng.Entries(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No entries found")
					return nil
				}
				for _, entry := range entries {
					fmt.Fprintln(out, entry)
				}
				return nil
			})
		},
	}
}

func newModesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "modes <entry>",
		Short: "Show which render modes an entry supports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(eng *engine.Engine, _ *rendercache.Manager) error {
				statuses, err := eng.Modes(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(statuses))
				for _, status := range statuses {
					rows = append(rows, []string{
						string(status.Mode),
						yesNo(status.Available),
						yesNo(status.Cached),
						status.Fingerprint,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Mode", "Available", "Cached", "Fingerprint"},
					rows,
					nil,
				))
				return nil
			})
		},
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
