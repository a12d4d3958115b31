package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"assetpress/internal/compression"
	"assetpress/internal/compressor"
	"assetpress/internal/manifest"
	"assetpress/internal/preflight"
	"assetpress/internal/services"
)

func newCompressCommand(ctx *commandContext) *cobra.Command {
	var (
		requests []string
		workers  int
	)

	cmd := &cobra.Command{
		Use:   "compress",
		Short: "Plan and produce compressed artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if failed := preflight.Failed(preflight.RunDirectories(cfg)); len(failed) > 0 {
				errs := make([]error, 0, len(failed))
				for _, result := range failed {
					errs = append(errs, fmt.Errorf("%s: %s", result.Name, result.Detail))
				}
				return services.Wrap(services.ErrConfiguration, "compress", "preflight", "", errors.Join(errs...))
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			store, err := manifest.Open(cfg)
			if err != nil {
				return fmt.Errorf("open manifest: %w", err)
			}
			defer store.Close()

			outcome, err := buildPlan(cmd.Context(), ctx, cfg, requests, store)
			if err != nil {
				return err
			}
			if !outcome.result.Success {
				for _, diag := range outcome.result.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", diag.Message)
				}
				return outcome.result.Err()
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			if len(outcome.result.Jobs) == 0 {
				printLines(out, renderStatusLine("Compress", statusOK,
					fmt.Sprintf("nothing to do (%s up to date)", pluralize(outcome.inventory.Artifacts, "artifact", "artifacts")), colorize))
				return nil
			}

			if workers <= 0 {
				workers = cfg.Compression.Workers
			}
			runner := compressor.New(compressor.Options{
				Workers: workers,
				Levels: map[compression.Format]int{
					compression.FormatGzip:   cfg.Level(compression.FormatGzip),
					compression.FormatBrotli: cfg.Level(compression.FormatBrotli),
				},
				LockPath: cfg.LockPath(),
				Manifest: store,
				Logger:   ctx.componentLogger("compressor"),
			})
			report, err := runner.Run(cmd.Context(), outcome.result.Jobs)
			if err != nil {
				return err
			}

			for _, result := range report.Results {
				if result.Err == nil {
					continue
				}
				label := displayPath(cfg.Paths.ProjectRoot, result.Job.Source.Identity) + " (" + result.Job.Format.Token() + ")"
				printLines(out, renderStatusLine("Failed", statusError, label+": "+result.Err.Error(), colorize))
			}
			kind := statusOK
			if report.Failed > 0 {
				kind = statusWarn
			}
			summary := fmt.Sprintf("%s, %s -> %s (%s) in %s",
				pluralize(report.Succeeded, "artifact", "artifacts"),
				formatBytes(report.BytesIn),
				formatBytes(report.BytesOut),
				formatRatio(ratio(report.BytesOut, report.BytesIn)),
				report.Duration.Round(time.Millisecond),
			)
			printLines(out, renderStatusLine("Compressed", kind, summary, colorize))
			if report.Failed > 0 {
				printLines(out, renderStatusLine("Failures", statusError, fmt.Sprintf("%d", report.Failed), colorize))
			}
			return report.Err()
		},
	}

	cmd.Flags().StringArrayVar(&requests, "request", nil, "Explicit request path=Tag (repeatable)")
	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "Override compression.workers for this run")
	return cmd
}

func ratio(out, in int64) float64 {
	if in <= 0 {
		return 0
	}
	return float64(out) / float64(in)
}
