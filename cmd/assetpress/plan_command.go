package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"assetpress/internal/planner"
)

type planJobJSON struct {
	Identity     string            `json:"identity"`
	RelativePath string            `json:"relative_path"`
	Format       string            `json:"format"`
	Tag          string            `json:"tag"`
	OutputPath   string            `json:"output_path"`
	Explicit     bool              `json:"explicit"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type planSkipJSON struct {
	Identity string `json:"identity"`
	Format   string `json:"format,omitempty"`
	Reason   string `json:"reason"`
}

type planStaleJSON struct {
	Path   string `json:"path"`
	Origin string `json:"origin,omitempty"`
	Reason string `json:"reason"`
}

type planJSON struct {
	Success   bool            `json:"success"`
	Jobs      []planJobJSON   `json:"jobs"`
	Skipped   []planSkipJSON  `json:"skipped,omitempty"`
	Stale     []planStaleJSON `json:"stale,omitempty"`
	Artifacts int             `json:"artifacts"`
	Errors    []string        `json:"errors,omitempty"`
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOutput bool
		requests   []string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the compression jobs the next run would execute",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := openManifestIfPresent(cfg)
			if err != nil {
				return fmt.Errorf("open manifest: %w", err)
			}
			if store != nil {
				defer store.Close()
			}

			outcome, err := buildPlan(cmd.Context(), ctx, cfg, requests, store)
			if err != nil {
				return err
			}

			if jsonOutput {
				if err := writeJSON(cmd, planToJSON(outcome)); err != nil {
					return err
				}
				return outcome.result.Err()
			}

			out := cmd.OutOrStdout()
			if !outcome.result.Success {
				for _, diag := range outcome.result.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", diag.Message)
				}
				return outcome.result.Err()
			}
			if len(outcome.result.Jobs) == 0 {
				fmt.Fprintf(out, "Nothing to compress (%s up to date)\n", pluralize(outcome.inventory.Artifacts, "artifact", "artifacts"))
				return nil
			}
			fmt.Fprintln(out, renderPlanTable(outcome.result.Jobs, cfg.Paths.ProjectRoot, cfg.Paths.OutputRoot))
			fmt.Fprintf(out, "%s planned, %s up to date, %s skipped\n",
				pluralize(len(outcome.result.Jobs), "job", "jobs"),
				pluralize(outcome.inventory.Artifacts, "artifact", "artifacts"),
				pluralize(len(outcome.result.Skipped), "pair", "pairs"),
			)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the plan as JSON")
	cmd.Flags().StringArrayVar(&requests, "request", nil, "Explicit request path=Tag (repeatable)")
	return cmd
}

func renderPlanTable(jobs []planner.Job, projectRoot, outputRoot string) string {
	rows := make([][]string, 0, len(jobs))
	for i, job := range jobs {
		source := job.Source.RelativePath
		if source == "" {
			source = displayPath(projectRoot, job.Source.Identity)
		}
		origin := "pattern"
		if job.Explicit {
			origin = "explicit"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			source,
			job.Format.Token(),
			displayPath(outputRoot, job.OutputPath),
			origin,
		})
	}
	return renderTable(
		[]string{"#", "Source", "Format", "Output", "Via"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
	)
}

func planToJSON(outcome planOutcome) planJSON {
	payload := planJSON{
		Success:   outcome.result.Success,
		Jobs:      make([]planJobJSON, 0, len(outcome.result.Jobs)),
		Artifacts: outcome.inventory.Artifacts,
	}
	for _, job := range outcome.result.Jobs {
		payload.Jobs = append(payload.Jobs, planJobJSON{
			Identity:     job.Source.Identity,
			RelativePath: job.Source.RelativePath,
			Format:       job.Format.Token(),
			Tag:          job.Format.Tag(),
			OutputPath:   job.OutputPath,
			Explicit:     job.Explicit,
			Metadata:     job.Source.Metadata,
		})
	}
	for _, skip := range outcome.result.Skipped {
		entry := planSkipJSON{Identity: skip.Identity, Reason: string(skip.Reason)}
		if skip.Format.Valid() {
			entry.Format = skip.Format.Token()
		}
		payload.Skipped = append(payload.Skipped, entry)
	}
	for _, stale := range outcome.inventory.Stale {
		payload.Stale = append(payload.Stale, planStaleJSON{Path: stale.Path, Origin: stale.Origin, Reason: string(stale.Reason)})
	}
	for _, diag := range outcome.result.Errors {
		payload.Errors = append(payload.Errors, diag.Message)
	}
	return payload
}
