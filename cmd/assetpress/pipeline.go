package main

import (
	"context"
	"errors"
	"os"

	"assetpress/internal/assets"
	"assetpress/internal/config"
	"assetpress/internal/logging"
	"assetpress/internal/manifest"
	"assetpress/internal/planner"
	"assetpress/internal/services"
)

type planOutcome struct {
	inventory assets.Inventory
	result    planner.Result
}

// parseRequests turns repeated --request path=Tag flags into config entries.
func parseRequests(values []string) ([]config.ExplicitRequest, error) {
	var (
		requests []config.ExplicitRequest
		errs     []error
	)
	for _, value := range values {
		request, err := assets.ParseRequest(value)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		requests = append(requests, request)
	}
	if len(errs) > 0 {
		return nil, services.Wrap(services.ErrConfiguration, "plan", "parse --request", "", errors.Join(errs...))
	}
	return requests, nil
}

// openManifestIfPresent opens the manifest only when it already exists so a
// plan never creates state.
func openManifestIfPresent(cfg *config.Config) (*manifest.Store, error) {
	if _, err := os.Stat(cfg.ManifestPath()); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return manifest.OpenPath(cfg.ManifestPath())
}

// buildPlan discovers candidates and runs the planner. store may be nil.
func buildPlan(ctx context.Context, cmdCtx *commandContext, cfg *config.Config, requestFlags []string, store *manifest.Store) (planOutcome, error) {
	var outcome planOutcome

	extra, err := parseRequests(requestFlags)
	if err != nil {
		return outcome, err
	}

	opts := assets.Options{
		ProjectRoot: cfg.Paths.ProjectRoot,
		OutputRoot:  cfg.Paths.OutputRoot,
		SkipDirs:    []string{cfg.Paths.StateDir},
		Logger:      cmdCtx.componentLogger("discovery"),
	}
	if store != nil {
		opts.Manifest = store
	}
	outcome.inventory, err = assets.Discover(services.WithStage(ctx, "discover"), opts)
	if err != nil {
		return outcome, services.Wrap(services.ErrNotFound, "discover", "walk", cfg.Paths.ProjectRoot, err)
	}

	explicit := append(append([]config.ExplicitRequest(nil), cfg.Compression.Explicit...), extra...)
	outcome.result = planner.Plan(planner.Request{
		Candidates: outcome.inventory.Candidates,
		Explicit:   assets.ExplicitRequests(cfg.Paths.ProjectRoot, explicit),
		Include:    cfg.Compression.Include,
		Exclude:    cfg.Compression.Exclude,
		Formats:    cfg.Compression.Formats,
		OutputRoot: cfg.Paths.OutputRoot,
	})

	logger := logging.WithContext(services.WithStage(ctx, "plan"), cmdCtx.componentLogger("planner"))
	for _, skip := range outcome.result.Skipped {
		logger.Debug("skipped",
			logging.String(logging.FieldAsset, skip.Identity),
			logging.String(logging.FieldFormat, formatLabel(skip.Format)),
			logging.String("reason", string(skip.Reason)),
			logging.String(logging.FieldEventType, "plan_skip"),
		)
	}
	for _, diag := range outcome.result.Errors {
		logger.Error("configuration error",
			logging.String("detail", diag.Message),
			logging.String(logging.FieldEventType, "plan_error"),
		)
	}
	logger.Info("plan ready",
		logging.Int("jobs", len(outcome.result.Jobs)),
		logging.Int("candidates", len(outcome.inventory.Candidates)),
		logging.Int("artifacts", outcome.inventory.Artifacts),
		logging.Int("stale", len(outcome.inventory.Stale)),
		logging.Bool("success", outcome.result.Success),
		logging.String(logging.FieldEventType, "plan_complete"),
	)
	return outcome, nil
}
