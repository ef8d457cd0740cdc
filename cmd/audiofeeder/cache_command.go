package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"audiofeeder/internal/engine"
	"audiofeeder/internal/rendercache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Render cache utilities",
	}
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	cacheCmd.AddCommand(newCacheInvalidateCommand(ctx))
	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached render artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(_ *engine.Engine, cache *rendercache.Manager) error {
				artifacts, err := cache.List(cmd.Context())
				if err != nil {
					return err
				}
				stats, err := cache.Stats(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				rows := make([][]string, 0, len(artifacts))
				for _, artifact := range artifacts {
					rows = append(rows, []string{
						artifact.EntryID,
						string(artifact.Mode),
						fmt.Sprintf("%d", len(artifact.Files)),
						formatDuration(artifact.TotalDuration()),
						formatBytes(artifact.SizeBytes),
						artifact.LastAccess.Local().Format("2006-01-02 15:04"),
						shortFingerprint(artifact.Fingerprint),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Entry", "Mode", "Files", "Duration", "Size", "Last Access", "Fingerprint"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft},
				))
				fmt.Fprintf(out, "%d artifacts, %s of %s used, %.0f%% disk free\n",
					stats.Artifacts,
					formatBytes(stats.TotalBytes),
					formatBytes(stats.MaxBytes),
					stats.FreeRatio*100,
				)
				return nil
			})
		},
	}
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Apply the cache retention and size policies now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(_ *engine.Engine, cache *rendercache.Manager) error {
				before, err := cache.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if err := cache.Prune(cmd.Context(), ""); err != nil {
					return err
				}
				after, err := cache.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d artifacts, reclaimed %s\n",
					before.Artifacts-after.Artifacts,
					formatBytes(before.TotalBytes-after.TotalBytes),
				)
				return nil
			})
		},
	}
}

func newCacheInvalidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate <fingerprint>",
		Short: "Remove one cached artifact by fingerprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(_ *engine.Engine, cache *rendercache.Manager) error {
				if err := cache.Invalidate(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Invalidated %s\n", args[0])
				return nil
			})
		},
	}
}
