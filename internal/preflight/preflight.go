package preflight

import (
	"context"
	"strings"

	"assetpress/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed returns the subset of results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// RunDirectories checks the project root, output root, and state directory.
func RunDirectories(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{CheckReadableDirectory("Project root", cfg.Paths.ProjectRoot)}
	if strings.TrimSpace(cfg.Paths.OutputRoot) == "" {
		results = append(results, Result{Name: "Output root", Detail: "not set (paths.output_root or " + config.OutputRootEnv + ")"})
	} else {
		results = append(results, CheckCreatableDirectory("Output root", cfg.Paths.OutputRoot))
	}
	results = append(results, CheckCreatableDirectory("State directory", cfg.Paths.StateDir))
	return results
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := RunDirectories(cfg)
	results = append(results,
		CheckFormats(cfg.Compression.Formats),
		CheckPatterns("Include patterns", cfg.Compression.Include),
		CheckPatterns("Exclude patterns", cfg.Compression.Exclude),
	)
	results = append(results, CheckExplicit(cfg.Paths.ProjectRoot, cfg.Compression.Explicit)...)
	results = append(results, CheckManifest(ctx, cfg.ManifestPath()))
	return results
}
