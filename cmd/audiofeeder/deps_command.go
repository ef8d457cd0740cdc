package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"audiofeeder/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tool availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(deps.Required(cfg))
			rows := make([][]string, 0, len(statuses))
			allAvailable := true
			for _, status := range statuses {
				detail := status.Version
				if detail == "" {
					detail = status.Detail
				}
				rows = append(rows, []string{
					status.Name,
					status.Command,
					yesNo(status.Available),
					detail,
				})
				if !status.Available && !status.Optional {
					allAvailable = false
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Tool", "Command", "Available", "Detail"},
				rows,
				nil,
			))
			if !allAvailable {
				return fmt.Errorf("required tools are missing")
			}
			return nil
		},
	}
}
