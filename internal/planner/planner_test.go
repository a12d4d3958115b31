package planner

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"assetpress/internal/compression"
	"assetpress/internal/services"
)

const (
	projectRoot = "/srv/app/wwwroot"
	outputRoot  = "/srv/app/obj/compressed"
)

func sourceAsset(rel string) Asset {
	return Asset{
		Identity:     filepath.Join(projectRoot, filepath.FromSlash(rel)),
		RelativePath: rel,
		Metadata:     map[string]string{"content_type": "text/plain"},
	}
}

// producedFrom models the output of a previous run re-supplied as a candidate.
func producedFrom(origin Asset, f compression.Format) Asset {
	return Asset{
		Identity:           OutputPath(outputRoot, origin, f),
		OriginalSourcePath: origin.Identity,
		RelativePath:       origin.RelativePath + f.Suffix(),
	}
}

func explicit(asset Asset, f compression.Format) ExplicitRequest {
	return ExplicitRequest{Identity: asset.Identity, Format: f.Tag()}
}

type jobSummary struct {
	identity string
	format   compression.Format
	output   string
}

func summarize(jobs []Job) []jobSummary {
	out := make([]jobSummary, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, jobSummary{identity: job.Source.Identity, format: job.Format, output: job.OutputPath})
	}
	return out
}

func mustPlan(t *testing.T, req Request) Result {
	t.Helper()
	result := Plan(req)
	if !result.Success {
		t.Fatalf("plan failed: %v", result.Err())
	}
	if result.Err() != nil {
		t.Fatalf("successful plan returned error: %v", result.Err())
	}
	return result
}

func TestExplicitRequestsOnly(t *testing.T) {
	asset := sourceAsset("site.tmp")
	result := mustPlan(t, Request{
		Candidates: []Asset{asset},
		Explicit:   []ExplicitRequest{explicit(asset, compression.FormatGzip), explicit(asset, compression.FormatBrotli)},
		OutputRoot: outputRoot,
	})

	want := []jobSummary{
		{asset.Identity, compression.FormatGzip, filepath.Join(outputRoot, "site.tmp.gz")},
		{asset.Identity, compression.FormatBrotli, filepath.Join(outputRoot, "site.tmp.br")},
	}
	if got := summarize(result.Jobs); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected jobs:\n got %+v\nwant %+v", got, want)
	}
	for _, job := range result.Jobs {
		if !job.Explicit {
			t.Fatalf("expected explicit job, got %+v", job)
		}
	}
}

func TestIncludePatternAppliesFormatList(t *testing.T) {
	asset := sourceAsset("js/site.tmp")
	result := mustPlan(t, Request{
		Candidates: []Asset{asset},
		Include:    "**/*.tmp",
		Formats:    "gzip;brotli",
		OutputRoot: outputRoot,
	})

	want := []jobSummary{
		{asset.Identity, compression.FormatGzip, filepath.Join(outputRoot, "js", "site.tmp.gz")},
		{asset.Identity, compression.FormatBrotli, filepath.Join(outputRoot, "js", "site.tmp.br")},
	}
	if got := summarize(result.Jobs); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected jobs:\n got %+v\nwant %+v", got, want)
	}
	if result.Jobs[0].Explicit {
		t.Fatal("pattern-derived job must not be flagged explicit")
	}
	if result.Jobs[0].Source.Metadata["content_type"] != "text/plain" {
		t.Fatal("metadata must be carried through to jobs")
	}
}

func TestExcludeBeatsInclude(t *testing.T) {
	asset := sourceAsset("site.tmp")
	result := mustPlan(t, Request{
		Candidates: []Asset{asset},
		Include:    "**/*",
		Exclude:    "**/*.tmp",
		Formats:    "gzip;brotli",
		OutputRoot: outputRoot,
	})
	if len(result.Jobs) != 0 {
		t.Fatalf("expected no jobs, got %+v", result.Jobs)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Reason != SkipExcluded {
		t.Fatalf("expected one excluded skip, got %+v", result.Skipped)
	}
}

func TestExplicitRequestsIgnoreExcludes(t *testing.T) {
	asset := sourceAsset("site.tmp")
	result := mustPlan(t, Request{
		Candidates: []Asset{asset},
		Explicit:   []ExplicitRequest{explicit(asset, compression.FormatBrotli)},
		Include:    "**/*",
		Exclude:    "**/*.tmp",
		Formats:    "gzip",
		OutputRoot: outputRoot,
	})
	if len(result.Jobs) != 1 || result.Jobs[0].Format != compression.FormatBrotli {
		t.Fatalf("expected a single brotli job, got %+v", summarize(result.Jobs))
	}
}

func TestExplicitAndPatternDeduplicate(t *testing.T) {
	asset := sourceAsset("site.tmp")
	result := mustPlan(t, Request{
		Candidates: []Asset{asset},
		Explicit:   []ExplicitRequest{explicit(asset, compression.FormatGzip), explicit(asset, compression.FormatBrotli)},
		Include:    "**/*.tmp",
		Formats:    "gzip;brotli",
		OutputRoot: outputRoot,
	})
	if len(result.Jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d: %+v", len(result.Jobs), summarize(result.Jobs))
	}
	for _, job := range result.Jobs {
		if !job.Explicit {
			t.Fatalf("explicit jobs must keep the first position: %+v", job)
		}
	}
	duplicates := 0
	for _, skip := range result.Skipped {
		if skip.Reason == SkipDuplicate {
			duplicates++
		}
	}
	if duplicates != 2 {
		t.Fatalf("expected 2 duplicate skips, got %+v", result.Skipped)
	}
}

func TestIncrementalRunSkipsProducedArtifacts(t *testing.T) {
	original := sourceAsset("site.tmp")

	first := mustPlan(t, Request{
		Candidates: []Asset{original},
		Include:    "**/*.tmp",
		Formats:    "gzip",
		OutputRoot: outputRoot,
	})
	if len(first.Jobs) != 1 || first.Jobs[0].Format != compression.FormatGzip {
		t.Fatalf("run A: expected one gzip job, got %+v", summarize(first.Jobs))
	}

	gz := Asset{
		Identity:           first.Jobs[0].OutputPath,
		OriginalSourcePath: original.Identity,
		RelativePath:       "site.tmp.gz",
	}
	second := mustPlan(t, Request{
		Candidates: []Asset{original, gz},
		Explicit:   []ExplicitRequest{explicit(original, compression.FormatBrotli)},
		Include:    "**/*.tmp",
		Formats:    "gzip;brotli",
		OutputRoot: outputRoot,
	})
	want := []jobSummary{{original.Identity, compression.FormatBrotli, filepath.Join(outputRoot, "site.tmp.br")}}
	if got := summarize(second.Jobs); !reflect.DeepEqual(got, want) {
		t.Fatalf("run B: unexpected jobs:\n got %+v\nwant %+v", got, want)
	}

	var sawProduced bool
	for _, skip := range second.Skipped {
		if skip.Identity == original.Identity && skip.Format == compression.FormatGzip && skip.Reason == SkipAlreadyProduced {
			sawProduced = true
		}
	}
	if !sawProduced {
		t.Fatalf("expected gzip pair recorded as already produced, got %+v", second.Skipped)
	}
}

func TestProducedArtifactIsNeverSourceMaterial(t *testing.T) {
	original := sourceAsset("site.js")
	gz := producedFrom(original, compression.FormatGzip)
	result := mustPlan(t, Request{
		Candidates: []Asset{original, gz},
		Explicit:   []ExplicitRequest{explicit(gz, compression.FormatBrotli)},
		Include:    "**/*",
		Formats:    "gzip;brotli",
		OutputRoot: outputRoot,
	})
	for _, job := range result.Jobs {
		if job.Source.Identity == gz.Identity {
			t.Fatalf("artifact scheduled for compression: %+v", job)
		}
	}
	want := []jobSummary{{original.Identity, compression.FormatBrotli, filepath.Join(outputRoot, "site.js.br")}}
	if got := summarize(result.Jobs); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected jobs:\n got %+v\nwant %+v", got, want)
	}
}

func TestProducedDetectionRequiresOriginCandidate(t *testing.T) {
	original := sourceAsset("site.js")
	// The origin is not part of this invocation, so the .gz is a plain asset.
	orphan := producedFrom(original, compression.FormatGzip)
	orphan.RelativePath = "site.js.gz"
	result := mustPlan(t, Request{
		Candidates: []Asset{orphan},
		Include:    "**/*.gz",
		Formats:    "brotli",
		OutputRoot: outputRoot,
	})
	if len(result.Jobs) != 1 || result.Jobs[0].Source.Identity != orphan.Identity {
		t.Fatalf("expected orphan to be compressed as a regular asset, got %+v", summarize(result.Jobs))
	}
}

func TestBackReferenceWithoutSuffixIsNotAnArtifact(t *testing.T) {
	original := sourceAsset("site.css")
	copyAsset := Asset{
		Identity:           filepath.Join(outputRoot, "site.abc123.css"),
		OriginalSourcePath: original.Identity,
		RelativePath:       "site.abc123.css",
	}
	result := mustPlan(t, Request{
		Candidates: []Asset{original, copyAsset},
		Include:    "**/*.css",
		Formats:    "gzip",
		OutputRoot: outputRoot,
	})
	if len(result.Jobs) != 2 {
		t.Fatalf("expected both assets to be compressed, got %+v", summarize(result.Jobs))
	}
}

func TestOriginalSourcePathMatchesPatterns(t *testing.T) {
	asset := Asset{
		Identity:           "/srv/app/obj/fingerprinted/site.abc123",
		OriginalSourcePath: "/srv/app/wwwroot/site.js",
		RelativePath:       "site.abc123",
	}
	result := mustPlan(t, Request{
		Candidates: []Asset{asset},
		Include:    "**/*.js",
		Formats:    "gzip",
		OutputRoot: outputRoot,
	})
	if len(result.Jobs) != 1 {
		t.Fatalf("expected origin path to satisfy include pattern, got %+v", summarize(result.Jobs))
	}
}

func TestEmptyIncludeYieldsNoPatternJobs(t *testing.T) {
	asset := sourceAsset("site.js")
	result := mustPlan(t, Request{
		Candidates: []Asset{asset},
		Formats:    "gzip;brotli",
		OutputRoot: outputRoot,
	})
	if len(result.Jobs) != 0 {
		t.Fatalf("expected no jobs without include patterns, got %+v", summarize(result.Jobs))
	}
}

func TestEmptyFormatsStillHonoursExplicit(t *testing.T) {
	a := sourceAsset("a.js")
	b := sourceAsset("b.js")
	result := mustPlan(t, Request{
		Candidates: []Asset{a, b},
		Explicit:   []ExplicitRequest{explicit(b, compression.FormatGzip)},
		Include:    "**/*.js",
		OutputRoot: outputRoot,
	})
	want := []jobSummary{{b.Identity, compression.FormatGzip, filepath.Join(outputRoot, "b.js.gz")}}
	if got := summarize(result.Jobs); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected jobs:\n got %+v\nwant %+v", got, want)
	}
}

func TestExplicitFormatOutsideListIsHonoured(t *testing.T) {
	asset := sourceAsset("a.js")
	result := mustPlan(t, Request{
		Candidates: []Asset{asset},
		Explicit:   []ExplicitRequest{explicit(asset, compression.FormatBrotli)},
		Include:    "**/*.js",
		Formats:    "gzip",
		OutputRoot: outputRoot,
	})
	want := []jobSummary{
		{asset.Identity, compression.FormatBrotli, filepath.Join(outputRoot, "a.js.br")},
		{asset.Identity, compression.FormatGzip, filepath.Join(outputRoot, "a.js.gz")},
	}
	if got := summarize(result.Jobs); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected jobs:\n got %+v\nwant %+v", got, want)
	}
}

func TestUnresolvedExplicitRequestIsDropped(t *testing.T) {
	asset := sourceAsset("a.js")
	result := mustPlan(t, Request{
		Candidates: []Asset{asset},
		Explicit: []ExplicitRequest{
			{Identity: "/srv/app/wwwroot/missing.js", Format: "BuildCompressionGzip"},
			explicit(asset, compression.FormatGzip),
		},
		OutputRoot: outputRoot,
	})
	if len(result.Jobs) != 1 || result.Jobs[0].Source.Identity != asset.Identity {
		t.Fatalf("unexpected jobs: %+v", summarize(result.Jobs))
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unresolved reference must not be an error: %+v", result.Errors)
	}
	if result.Skipped[0].Reason != SkipUnresolved {
		t.Fatalf("expected unresolved skip, got %+v", result.Skipped)
	}
}

func TestOrderingExplicitThenCandidatesThenFormats(t *testing.T) {
	a := sourceAsset("a.js")
	b := sourceAsset("b.js")
	c := sourceAsset("c.js")
	result := mustPlan(t, Request{
		Candidates: []Asset{a, b, c},
		Explicit: []ExplicitRequest{
			explicit(c, compression.FormatGzip),
			explicit(a, compression.FormatBrotli),
		},
		Include:    "**/*.js",
		Formats:    "brotli;gzip",
		OutputRoot: outputRoot,
	})
	var got []string
	for _, job := range result.Jobs {
		got = append(got, filepath.Base(job.OutputPath))
	}
	want := []string{"c.js.gz", "a.js.br", "a.js.gz", "b.js.br", "b.js.gz", "c.js.br"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected order:\n got %v\nwant %v", got, want)
	}
}

func TestPlanIsDeterministic(t *testing.T) {
	var candidates []Asset
	var requests []ExplicitRequest
	for i := 0; i < 50; i++ {
		asset := sourceAsset(fmt.Sprintf("dir%d/file%d.js", i%5, i))
		candidates = append(candidates, asset)
		if i%3 == 0 {
			requests = append(requests, explicit(asset, compression.FormatBrotli))
		}
		if i%7 == 0 {
			candidates = append(candidates, producedFrom(asset, compression.FormatGzip))
		}
	}
	req := Request{
		Candidates: candidates,
		Explicit:   requests,
		Include:    "**/*.js",
		Exclude:    "dir4/**",
		Formats:    "gzip;brotli",
		OutputRoot: outputRoot,
	}
	first := mustPlan(t, req)
	for i := 0; i < 10; i++ {
		again := mustPlan(t, req)
		if !reflect.DeepEqual(summarize(first.Jobs), summarize(again.Jobs)) {
			t.Fatalf("plan differs on iteration %d", i)
		}
	}

	pairs := make(map[string]struct{})
	outputs := make(map[string]struct{})
	for _, job := range first.Jobs {
		key := job.Source.Identity + "|" + job.Format.String()
		if _, dup := pairs[key]; dup {
			t.Fatalf("duplicate pair %s", key)
		}
		pairs[key] = struct{}{}
		if _, dup := outputs[job.OutputPath]; dup {
			t.Fatalf("duplicate output %s", job.OutputPath)
		}
		outputs[job.OutputPath] = struct{}{}
		if strings.Contains(job.Source.RelativePath, "dir4/") && !job.Explicit {
			t.Fatalf("excluded asset produced a pattern job: %+v", job)
		}
	}
}

func TestInjectedMatcher(t *testing.T) {
	asset := sourceAsset("anything.bin")
	var calls []string
	result := mustPlan(t, Request{
		Candidates: []Asset{asset},
		Include:    "keep",
		Formats:    "gzip",
		OutputRoot: outputRoot,
		Match: func(path string, patterns []string) bool {
			calls = append(calls, path+"~"+strings.Join(patterns, ","))
			return patterns[0] == "keep"
		},
	})
	if len(result.Jobs) != 1 {
		t.Fatalf("expected injected matcher to include asset, got %+v", summarize(result.Jobs))
	}
	if len(calls) != 1 || calls[0] != "anything.bin~keep" {
		t.Fatalf("unexpected matcher calls: %v", calls)
	}
}

func TestConfigurationErrors(t *testing.T) {
	asset := sourceAsset("a.js")
	cases := []struct {
		name     string
		req      Request
		fragment string
	}{
		{
			name: "unknown explicit tag",
			req: Request{
				Candidates: []Asset{asset},
				Explicit:   []ExplicitRequest{{Identity: asset.Identity, Format: "BuildCompressionZstd"}},
				OutputRoot: outputRoot,
			},
			fragment: "BuildCompressionZstd",
		},
		{
			name: "unknown format token",
			req: Request{
				Candidates: []Asset{asset},
				Include:    "**/*.js",
				Formats:    "gzip;zstd",
				OutputRoot: outputRoot,
			},
			fragment: "zstd",
		},
		{
			name: "missing output root",
			req: Request{
				Candidates: []Asset{asset},
				Include:    "**/*.js",
				Formats:    "gzip",
			},
			fragment: "output root",
		},
		{
			name: "colliding output paths",
			req: Request{
				Candidates: []Asset{
					asset,
					{Identity: "/elsewhere/a.js", RelativePath: "a.js"},
				},
				Include:    "**/*.js",
				Formats:    "gzip",
				OutputRoot: outputRoot,
			},
			fragment: "claimed by both",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Plan(tc.req)
			if result.Success {
				t.Fatal("expected failure")
			}
			if len(result.Jobs) != 0 {
				t.Fatalf("failed plan must not return jobs: %+v", result.Jobs)
			}
			err := result.Err()
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.fragment) {
				t.Fatalf("expected %q in %q", tc.fragment, err.Error())
			}
		})
	}
}

func TestMissingOutputRootWithoutJobsIsFine(t *testing.T) {
	result := mustPlan(t, Request{
		Candidates: []Asset{sourceAsset("a.js")},
		Include:    "**/*.css",
		Formats:    "gzip",
	})
	if len(result.Jobs) != 0 {
		t.Fatalf("expected no jobs, got %+v", result.Jobs)
	}
}

func TestOutputPathFallsBackToIdentityBase(t *testing.T) {
	got := OutputPath(outputRoot, Asset{Identity: "/tmp/x/app.js"}, compression.FormatBrotli)
	if got != filepath.Join(outputRoot, "app.js.br") {
		t.Fatalf("unexpected output path %q", got)
	}
}
