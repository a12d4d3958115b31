package assets_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"assetpress/internal/assets"
	"assetpress/internal/compression"
	"assetpress/internal/config"
	"assetpress/internal/manifest"
	"assetpress/internal/planner"
	"assetpress/internal/testsupport"
)

func discover(t *testing.T, cfg *config.Config, lookup assets.Lookup) assets.Inventory {
	t.Helper()
	inv, err := assets.Discover(context.Background(), assets.Options{
		ProjectRoot: cfg.Paths.ProjectRoot,
		OutputRoot:  cfg.Paths.OutputRoot,
		SkipDirs:    []string{cfg.Paths.StateDir},
		Manifest:    lookup,
	})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	return inv
}

func byIdentity(inv assets.Inventory) map[string]planner.Asset {
	out := make(map[string]planner.Asset, len(inv.Candidates))
	for _, a := range inv.Candidates {
		out[a.Identity] = a
	}
	return out
}

func TestDiscoverListsProjectFilesAndSkipsHiddenAndOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	root := cfg.Paths.ProjectRoot
	testsupport.WriteText(t, filepath.Join(root, "wwwroot", "app.js"), "console.log(1)")
	testsupport.WriteText(t, filepath.Join(root, "wwwroot", "site.css"), "body{}")
	testsupport.WriteText(t, filepath.Join(root, ".git", "HEAD"), "ref")
	testsupport.WriteText(t, filepath.Join(cfg.Paths.OutputRoot, "orphan.txt"), "x")

	inv := discover(t, cfg, nil)
	if len(inv.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", inv.Candidates)
	}
	first := inv.Candidates[0]
	if first.RelativePath != "wwwroot/app.js" {
		t.Fatalf("unexpected relative path: %q", first.RelativePath)
	}
	if first.Identity != filepath.Join(root, "wwwroot", "app.js") {
		t.Fatalf("unexpected identity: %q", first.Identity)
	}
	if first.Metadata[assets.MetaSize] != "14" {
		t.Fatalf("unexpected size metadata: %v", first.Metadata)
	}
	if first.Metadata[assets.MetaContentType] == "" {
		t.Fatal("expected content type metadata")
	}
	if inv.Artifacts != 0 || len(inv.Stale) != 0 {
		t.Fatalf("unexpected artifacts or stale entries: %+v", inv)
	}
}

func TestDiscoverLinksFreshArtifactsByModTime(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := filepath.Join(cfg.Paths.ProjectRoot, "app.js")
	fresh := filepath.Join(cfg.Paths.OutputRoot, "app.js.gz")
	old := filepath.Join(cfg.Paths.OutputRoot, "app.js.br")
	testsupport.WriteText(t, src, "code")
	testsupport.WriteText(t, fresh, "gz")
	testsupport.WriteText(t, old, "br")

	now := time.Now()
	testsupport.SetModTime(t, src, now.Add(-time.Minute))
	testsupport.SetModTime(t, fresh, now)
	testsupport.SetModTime(t, old, now.Add(-time.Hour))

	inv := discover(t, cfg, nil)
	got := byIdentity(inv)
	artifact, ok := got[fresh]
	if !ok {
		t.Fatalf("expected fresh artifact among candidates: %+v", inv.Candidates)
	}
	if artifact.OriginalSourcePath != src {
		t.Fatalf("unexpected origin: %q", artifact.OriginalSourcePath)
	}
	if artifact.Metadata[assets.MetaEncoding] != "gzip" {
		t.Fatalf("unexpected encoding metadata: %v", artifact.Metadata)
	}
	if _, ok := got[old]; ok {
		t.Fatal("expected stale brotli artifact to be omitted")
	}
	if len(inv.Stale) != 1 || inv.Stale[0].Reason != assets.StaleOlderThanSource {
		t.Fatalf("unexpected stale list: %+v", inv.Stale)
	}
}

func TestDiscoverUsesManifestDigest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenManifest(t, cfg)
	ctx := context.Background()

	src := filepath.Join(cfg.Paths.ProjectRoot, "lib", "a.js")
	out := filepath.Join(cfg.Paths.OutputRoot, "lib", "a.js.gz")
	testsupport.WriteText(t, src, "v1")
	testsupport.WriteText(t, out, "compressed")
	digest, size, err := manifest.HashFile(src)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if err := store.Record(ctx, manifest.Entry{OutputPath: out, SourcePath: src, Format: compression.FormatGzip, SourceDigest: digest, SourceSize: size}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	// Source touched but unchanged: digest still matches even though it is newer.
	testsupport.SetModTime(t, out, time.Now().Add(-time.Hour))
	testsupport.SetModTime(t, src, time.Now())
	inv := discover(t, cfg, store)
	if _, ok := byIdentity(inv)[out]; !ok {
		t.Fatalf("expected artifact linked by digest: %+v", inv)
	}

	testsupport.WriteText(t, src, "v2")
	inv = discover(t, cfg, store)
	if _, ok := byIdentity(inv)[out]; ok {
		t.Fatal("expected artifact with changed source to be stale")
	}
	if len(inv.Stale) != 1 || inv.Stale[0].Reason != assets.StaleDigestMismatch {
		t.Fatalf("unexpected stale list: %+v", inv.Stale)
	}
}

func TestDiscoverReportsArtifactsWithoutOrigin(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteText(t, filepath.Join(cfg.Paths.ProjectRoot, "keep.css"), "a")
	gone := filepath.Join(cfg.Paths.OutputRoot, "deleted.js.br")
	testsupport.WriteText(t, gone, "b")

	inv := discover(t, cfg, nil)
	if len(inv.Stale) != 1 || inv.Stale[0].Path != gone || inv.Stale[0].Reason != assets.StaleNoOrigin {
		t.Fatalf("unexpected stale list: %+v", inv.Stale)
	}
}

func TestDiscoverLinksCompressedSiblingsInsideProject(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := filepath.Join(cfg.Paths.ProjectRoot, "vendor.js")
	sibling := src + ".gz"
	testsupport.WriteText(t, src, "vendor")
	testsupport.WriteText(t, sibling, "gz")
	testsupport.SetModTime(t, src, time.Now().Add(-time.Hour))

	inv := discover(t, cfg, nil)
	got := byIdentity(inv)
	if got[sibling].OriginalSourcePath != src {
		t.Fatalf("expected in-project sibling linked to origin, got %+v", got[sibling])
	}
	if len(inv.Candidates) != 2 || inv.Artifacts != 1 {
		t.Fatalf("unexpected inventory: %+v", inv)
	}
}

func TestDiscoverToleratesMissingOutputRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteText(t, filepath.Join(cfg.Paths.ProjectRoot, "a.js"), "a")
	inv := discover(t, cfg, nil)
	if len(inv.Candidates) != 1 {
		t.Fatalf("unexpected candidates: %+v", inv.Candidates)
	}
}

func TestDiscoveredCandidatesPlanIdempotently(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := filepath.Join(cfg.Paths.ProjectRoot, "app.js")
	testsupport.WriteText(t, src, "code")

	plan := func() planner.Result {
		inv := discover(t, cfg, nil)
		return planner.Plan(planner.Request{
			Candidates: inv.Candidates,
			Include:    "**/*.js",
			Formats:    "gzip;brotli",
			OutputRoot: cfg.Paths.OutputRoot,
		})
	}

	first := plan()
	if !first.Success || len(first.Jobs) != 2 {
		t.Fatalf("unexpected first plan: %+v", first)
	}
	testsupport.SetModTime(t, src, time.Now().Add(-time.Hour))
	testsupport.WriteText(t, first.Jobs[0].OutputPath, "gz")

	second := plan()
	if !second.Success || len(second.Jobs) != 1 || second.Jobs[0].Format != compression.FormatBrotli {
		t.Fatalf("expected only brotli job on second plan, got %+v", second.Jobs)
	}
}

func TestParseRequestAndResolve(t *testing.T) {
	req, err := assets.ParseRequest(" wwwroot/app.wasm = BuildCompressionBrotli ")
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.Path != "wwwroot/app.wasm" || req.Format != "BuildCompressionBrotli" {
		t.Fatalf("unexpected request: %+v", req)
	}
	for _, bad := range []string{"app.js", "=BuildCompressionGzip", "app.js="} {
		if _, err := assets.ParseRequest(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}

	resolved := assets.ExplicitRequests("/srv/site", []config.ExplicitRequest{req, {Path: "/abs/x.js", Format: "BuildCompressionGzip"}})
	if resolved[0].Identity != filepath.Join("/srv/site", "wwwroot", "app.wasm") {
		t.Fatalf("unexpected identity: %q", resolved[0].Identity)
	}
	if resolved[1].Identity != "/abs/x.js" {
		t.Fatalf("unexpected absolute identity: %q", resolved[1].Identity)
	}
}
