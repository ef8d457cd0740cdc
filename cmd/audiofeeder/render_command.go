package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"audiofeeder/internal/engine"
	"audiofeeder/internal/feed"
	"audiofeeder/internal/layout"
	"audiofeeder/internal/rendercache"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "render <entry> <mode>",
		Short: "Render an entry in the given mode and print the resulting feed items",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := layout.ParseMode(args[1])
			if err != nil {
				return err
			}
			return ctx.withEngine(func(eng *engine.Engine, _ *rendercache.Manager) error {
				artifact, err := eng.Render(cmd.Context(), args[0], mode)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Entry:       %s\n", artifact.EntryID)
				fmt.Fprintf(out, "Mode:        %s\n", artifact.Mode)
				fmt.Fprintf(out, "Fingerprint: %s\n", artifact.Fingerprint)
				fmt.Fprintf(out, "Directory:   %s\n", artifact.Dir)

				rows := make([][]string, 0, len(artifact.Files))
				for _, item := range feed.Items(artifact) {
					rows = append(rows, []string{
						fmt.Sprintf("%d", item.Position),
						item.Title,
						formatDuration(item.Duration),
						fmt.Sprintf("%d", len(item.Chapters)),
						item.MediaPath,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Title", "Duration", "Chapters", "Media"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}
