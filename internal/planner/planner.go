package planner

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"assetpress/internal/compression"
	"assetpress/internal/pattern"
	"assetpress/internal/services"
)

type pairKey struct {
	identity string
	format   compression.Format
}

// Plan resolves a Request into an ordered, deduplicated job list.
//
// Flow:
//  1. Detect produced artifacts among the candidates via their back-reference
//  2. Emit explicit-request jobs in request order
//  3. Emit pattern-derived jobs in candidate order, format-list order
//  4. Derive output paths and check they do not collide
//
// Configuration errors (unknown tag or token, missing output root, colliding
// output paths) discard every job and report Success=false.
func Plan(req Request) Result {
	var diags []Diagnostic

	formats, err := compression.ParseList(req.Formats)
	if err != nil {
		diags = append(diags, Diagnostic{Message: fmt.Sprintf("format list %q: %v", req.Formats, err)})
	}

	match := req.Match
	if match == nil {
		match = pattern.Match
	}
	include := pattern.Split(req.Include)
	exclude := pattern.Split(req.Exclude)

	byIdentity := make(map[string]int, len(req.Candidates))
	for i, asset := range req.Candidates {
		if _, dup := byIdentity[asset.Identity]; !dup {
			byIdentity[asset.Identity] = i
		}
	}
	produced, artifacts := detectProduced(req.Candidates, byIdentity)

	var (
		jobs    []Job
		skipped []Skip
	)
	claimed := make(map[pairKey]struct{})

	// claim reports whether the pair is free, recording a skip otherwise.
	claim := func(identity string, f compression.Format) bool {
		key := pairKey{identity: identity, format: f}
		if _, ok := produced[key]; ok {
			skipped = append(skipped, Skip{Identity: identity, Format: f, Reason: SkipAlreadyProduced})
			return false
		}
		if _, ok := claimed[key]; ok {
			skipped = append(skipped, Skip{Identity: identity, Format: f, Reason: SkipDuplicate})
			return false
		}
		claimed[key] = struct{}{}
		return true
	}

	for _, request := range req.Explicit {
		f, err := compression.ParseTag(request.Format)
		if err != nil {
			diags = append(diags, Diagnostic{Message: fmt.Sprintf("explicit request for %s: %v", request.Identity, err)})
			continue
		}
		idx, ok := byIdentity[request.Identity]
		if !ok {
			skipped = append(skipped, Skip{Identity: request.Identity, Format: f, Reason: SkipUnresolved})
			continue
		}
		asset := req.Candidates[idx]
		if artifacts[asset.Identity] {
			skipped = append(skipped, Skip{Identity: asset.Identity, Format: f, Reason: SkipArtifact})
			continue
		}
		if !claim(asset.Identity, f) {
			continue
		}
		jobs = append(jobs, Job{Source: asset, Format: f, Explicit: true})
	}

	if len(include) > 0 && len(formats) > 0 {
		for _, asset := range req.Candidates {
			if artifacts[asset.Identity] {
				skipped = append(skipped, Skip{Identity: asset.Identity, Reason: SkipArtifact})
				continue
			}
			if !matchesAny(asset, include, match) {
				continue
			}
			if matchesAny(asset, exclude, match) {
				skipped = append(skipped, Skip{Identity: asset.Identity, Reason: SkipExcluded})
				continue
			}
			for _, f := range formats {
				if !claim(asset.Identity, f) {
					continue
				}
				jobs = append(jobs, Job{Source: asset, Format: f})
			}
		}
	}

	root := strings.TrimSpace(req.OutputRoot)
	if len(jobs) > 0 && root == "" {
		diags = append(diags, Diagnostic{Message: fmt.Sprintf("output root is not set but %d job(s) need a destination", len(jobs))})
	}

	if len(diags) == 0 {
		diags = assignOutputPaths(jobs, root)
	}

	if len(diags) > 0 {
		return Result{Skipped: skipped, Success: false, Errors: diags}
	}
	return Result{Jobs: jobs, Skipped: skipped, Success: true}
}

// Err folds the diagnostics into a single configuration error, or nil when
// planning succeeded.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	errs := make([]error, 0, len(r.Errors))
	for _, d := range r.Errors {
		errs = append(errs, d)
	}
	if len(errs) == 0 {
		errs = append(errs, errors.New("planning failed"))
	}
	return services.Wrap(services.ErrConfiguration, "plan", "", "", errors.Join(errs...))
}

// detectProduced finds candidates that are compressed outputs of another
// candidate. It returns the produced (origin, format) pairs and the set of
// artifact identities, which are never compressed again.
func detectProduced(candidates []Asset, byIdentity map[string]int) (map[pairKey]struct{}, map[string]bool) {
	produced := make(map[pairKey]struct{})
	artifacts := make(map[string]bool)
	for _, asset := range candidates {
		origin := asset.OriginalSourcePath
		if origin == "" || origin == asset.Identity {
			continue
		}
		if _, ok := byIdentity[origin]; !ok {
			continue
		}
		f, ok := compression.FromSuffix(asset.Identity)
		if !ok {
			f, ok = compression.FromSuffix(asset.RelativePath)
		}
		if !ok {
			continue
		}
		produced[pairKey{identity: origin, format: f}] = struct{}{}
		artifacts[asset.Identity] = true
	}
	return produced, artifacts
}

func matchesAny(asset Asset, patterns []string, match MatchFunc) bool {
	if len(patterns) == 0 {
		return false
	}
	if asset.RelativePath != "" && match(asset.RelativePath, patterns) {
		return true
	}
	return asset.OriginalSourcePath != "" && match(asset.OriginalSourcePath, patterns)
}

// OutputPath derives root/RelativePath+suffix. Assets without a relative path
// fall back to the base name of their identity.
func OutputPath(root string, asset Asset, f compression.Format) string {
	rel := asset.RelativePath
	if rel == "" {
		rel = filepath.Base(asset.Identity)
	}
	return filepath.Join(root, filepath.FromSlash(rel)) + f.Suffix()
}

func assignOutputPaths(jobs []Job, root string) []Diagnostic {
	var diags []Diagnostic
	owners := make(map[string]string, len(jobs))
	for i := range jobs {
		out := OutputPath(root, jobs[i].Source, jobs[i].Format)
		if owner, ok := owners[out]; ok && owner != jobs[i].Source.Identity {
			diags = append(diags, Diagnostic{Message: fmt.Sprintf("output path %s is claimed by both %s and %s", out, owner, jobs[i].Source.Identity)})
			continue
		}
		owners[out] = jobs[i].Source.Identity
		jobs[i].OutputPath = out
	}
	return diags
}
