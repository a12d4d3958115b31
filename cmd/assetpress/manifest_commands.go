package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"assetpress/internal/manifest"
)

type manifestEntryJSON struct {
	OutputPath   string    `json:"output_path"`
	SourcePath   string    `json:"source_path"`
	Format       string    `json:"format"`
	SourceDigest string    `json:"source_digest"`
	SourceSize   int64     `json:"source_size"`
	OutputSize   int64     `json:"output_size"`
	RunID        string    `json:"run_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func newManifestCommand(ctx *commandContext) *cobra.Command {
	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect the record of produced artifacts",
	}
	manifestCmd.AddCommand(newManifestListCommand(ctx))
	manifestCmd.AddCommand(newManifestPruneCommand(ctx))
	return manifestCmd
}

func withManifest(ctx *commandContext, fn func(*manifest.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := manifest.Open(cfg)
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newManifestListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManifest(ctx, func(store *manifest.Store) error {
				entries, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					payload := make([]manifestEntryJSON, 0, len(entries))
					for _, entry := range entries {
						payload = append(payload, manifestEntryJSON{
							OutputPath:   entry.OutputPath,
							SourcePath:   entry.SourcePath,
							Format:       entry.Format.Token(),
							SourceDigest: entry.SourceDigest,
							SourceSize:   entry.SourceSize,
							OutputSize:   entry.OutputSize,
							RunID:        entry.RunID,
							CreatedAt:    entry.CreatedAt,
						})
					}
					return writeJSON(cmd, payload)
				}

				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "Manifest is empty")
					return nil
				}
				cfg := ctx.config
				rows := make([][]string, 0, len(entries))
				var totalIn, totalOut int64
				for _, entry := range entries {
					totalIn += entry.SourceSize
					totalOut += entry.OutputSize
					rows = append(rows, []string{
						displayPath(cfg.Paths.ProjectRoot, entry.SourcePath),
						entry.Format.Token(),
						displayPath(cfg.Paths.OutputRoot, entry.OutputPath),
						formatBytes(entry.SourceSize),
						formatBytes(entry.OutputSize),
						formatRatio(entry.Ratio()),
						entry.CreatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				footer := []string{pluralize(len(entries), "artifact", "artifacts"), "", "", formatBytes(totalIn), formatBytes(totalOut), formatRatio(ratio(totalOut, totalIn)), ""}
				fmt.Fprintln(out, renderTableWithFooter(
					[]string{"Source", "Format", "Output", "Source Size", "Output Size", "Ratio", "Created"},
					rows,
					footer,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit entries as JSON")
	return cmd
}

func newManifestPruneCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Drop entries whose artifact no longer exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManifest(ctx, func(store *manifest.Store) error {
				out := cmd.OutOrStdout()
				if all {
					removed, err := store.Clear(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %s\n", pluralize(int(removed), "entry", "entries"))
					return nil
				}
				removed, err := store.Prune(cmd.Context())
				if err != nil {
					return err
				}
				for _, entry := range removed {
					fmt.Fprintf(out, "  - %s\n", entry.OutputPath)
				}
				fmt.Fprintf(out, "Pruned %s\n", pluralize(len(removed), "entry", "entries"))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove every entry, not only missing artifacts")
	return cmd
}
