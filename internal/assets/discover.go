package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"path/filepath"
	"strconv"
	"strings"

	"assetpress/internal/compression"
	"assetpress/internal/config"
	"assetpress/internal/logging"
	"assetpress/internal/manifest"
	"assetpress/internal/planner"
)

// Metadata keys attached to every discovered asset.
const (
	MetaContentType = "content_type"
	MetaSize        = "size"
	MetaEncoding    = "content_encoding"
)

// Lookup is the manifest capability discovery needs.
type Lookup interface {
	Lookup(ctx context.Context, outputPath string) (*manifest.Entry, error)
}

// Options configures a discovery pass.
type Options struct {
	ProjectRoot string
	OutputRoot  string
	// SkipDirs are absolute directories excluded from the project walk, in
	// addition to hidden directories and the output root.
	SkipDirs    []string
	Manifest    Lookup
	// Logger is used as given; callers attach the component attribute.
	Logger      *slog.Logger
}

// StaleReason explains why an artifact on disk was not linked.
type StaleReason string

const (
	StaleDigestMismatch  StaleReason = "digest_mismatch"
	StaleOlderThanSource StaleReason = "older_than_source"
	StaleNoOrigin        StaleReason = "no_origin"
)

// Stale is an artifact left out of the candidate set.
type Stale struct {
	Path   string
	Origin string
	Reason StaleReason
}

// Inventory is the outcome of a discovery pass.
type Inventory struct {
	// Candidates lists project files in walk order followed by linked artifacts.
	Candidates []planner.Asset
	Artifacts  int
	Stale      []Stale
}

// Discover walks the configured roots and builds the candidate list.
func Discover(ctx context.Context, opts Options) (Inventory, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	var inv Inventory

	root, err := filepath.Abs(strings.TrimSpace(opts.ProjectRoot))
	if err != nil || strings.TrimSpace(opts.ProjectRoot) == "" {
		return inv, fmt.Errorf("project root %q is not usable", opts.ProjectRoot)
	}
	outputRoot := ""
	if strings.TrimSpace(opts.OutputRoot) != "" {
		if outputRoot, err = filepath.Abs(opts.OutputRoot); err != nil {
			return inv, fmt.Errorf("resolve output root: %w", err)
		}
	}

	skip := make(map[string]struct{}, len(opts.SkipDirs)+1)
	for _, dir := range opts.SkipDirs {
		if abs, err := filepath.Abs(dir); err == nil {
			skip[abs] = struct{}{}
		}
	}
	if outputRoot != "" && outputRoot != root {
		skip[outputRoot] = struct{}{}
	}

	sources := make(map[string]fs.FileInfo)
	var (
		plain     []planner.Asset
		inProject []string
	)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, ok := skip[path]; ok || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if _, ok := compression.FromSuffix(path); ok {
			inProject = append(inProject, path)
		}
		sources[path] = info
		plain = append(plain, newAsset(path, relativeSlash(root, path), info))
		return nil
	})
	if err != nil {
		return inv, fmt.Errorf("walk project root: %w", err)
	}

	var artifacts []planner.Asset
	linked := make(map[string]struct{})
	checker := &currencyChecker{ctx: ctx, manifest: opts.Manifest, sources: sources, digests: make(map[string]string)}

	link := func(path, origin string, info fs.FileInfo, rel string) error {
		reason, err := checker.current(path, origin, info)
		if err != nil {
			return err
		}
		if reason != "" {
			inv.Stale = append(inv.Stale, Stale{Path: path, Origin: origin, Reason: reason})
			logger.Debug("artifact is stale",
				logging.String(logging.FieldOutput, path),
				logging.String(logging.FieldAsset, origin),
				logging.String("reason", string(reason)),
				logging.String(logging.FieldEventType, "artifact_stale"),
			)
			return nil
		}
		asset := newAsset(path, rel, info)
		asset.OriginalSourcePath = origin
		if f, ok := compression.FromSuffix(path); ok {
			asset.Metadata[MetaEncoding] = f.ContentEncoding()
		}
		artifacts = append(artifacts, asset)
		linked[path] = struct{}{}
		return nil
	}

	// Compressed files committed next to their source inside the project.
	for _, path := range inProject {
		origin := compression.TrimSuffix(path)
		if _, ok := sources[origin]; !ok {
			continue
		}
		if err := link(path, origin, sources[path], relativeSlash(root, path)); err != nil {
			return inv, err
		}
	}

	if outputRoot != "" && outputRoot != root {
		err = filepath.WalkDir(outputRoot, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				if errors.Is(walkErr, fs.ErrNotExist) && path == outputRoot {
					return filepath.SkipDir
				}
				return walkErr
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			if _, ok := compression.FromSuffix(path); !ok {
				return nil
			}
			rel := relativeSlash(outputRoot, path)
			origin := filepath.Join(root, filepath.FromSlash(compression.TrimSuffix(rel)))
			if _, ok := sources[origin]; !ok {
				inv.Stale = append(inv.Stale, Stale{Path: path, Reason: StaleNoOrigin})
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			return link(path, origin, info, rel)
		})
		if err != nil {
			return inv, fmt.Errorf("walk output root: %w", err)
		}
	}

	// Linked in-project artifacts are not source material.
	for _, asset := range plain {
		if _, ok := linked[asset.Identity]; ok {
			continue
		}
		inv.Candidates = append(inv.Candidates, asset)
	}
	inv.Candidates = append(inv.Candidates, artifacts...)
	inv.Artifacts = len(artifacts)

	logger.Debug("discovery complete",
		logging.Int("candidates", len(inv.Candidates)),
		logging.Int("artifacts", inv.Artifacts),
		logging.Int("stale", len(inv.Stale)),
		logging.String(logging.FieldEventType, "discovery_complete"),
	)
	return inv, nil
}

type currencyChecker struct {
	ctx      context.Context
	manifest Lookup
	sources  map[string]fs.FileInfo
	digests  map[string]string
}

// current returns "" when the artifact at path is up to date with origin.
func (c *currencyChecker) current(path, origin string, info fs.FileInfo) (StaleReason, error) {
	if c.manifest != nil {
		entry, err := c.manifest.Lookup(c.ctx, path)
		if err != nil {
			return "", err
		}
		if entry != nil && entry.SourcePath == origin {
			digest, err := c.digest(origin)
			if err != nil {
				return "", err
			}
			if digest != entry.SourceDigest {
				return StaleDigestMismatch, nil
			}
			return "", nil
		}
	}
	if src := c.sources[origin]; src != nil && info.ModTime().Before(src.ModTime()) {
		return StaleOlderThanSource, nil
	}
	return "", nil
}

func (c *currencyChecker) digest(path string) (string, error) {
	if digest, ok := c.digests[path]; ok {
		return digest, nil
	}
	digest, _, err := manifest.HashFile(path)
	if err != nil {
		return "", err
	}
	c.digests[path] = digest
	return digest, nil
}

func newAsset(path, rel string, info fs.FileInfo) planner.Asset {
	contentType := mime.TypeByExtension(filepath.Ext(compression.TrimSuffix(path)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return planner.Asset{
		Identity:     path,
		RelativePath: rel,
		Metadata: map[string]string{
			MetaContentType: contentType,
			MetaSize:        strconv.FormatInt(info.Size(), 10),
		},
	}
}

func relativeSlash(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return filepath.ToSlash(filepath.Base(path))
	}
	return filepath.ToSlash(rel)
}

// ResolvePath maps a project-relative (or absolute) path to an identity.
func ResolvePath(projectRoot, path string) string {
	path = strings.TrimSpace(path)
	if !filepath.IsAbs(path) {
		path = filepath.Join(projectRoot, filepath.FromSlash(path))
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// ParseRequest parses a command-line request of the form path=Tag.
func ParseRequest(value string) (config.ExplicitRequest, error) {
	path, tag, ok := strings.Cut(value, "=")
	path = strings.TrimSpace(path)
	tag = strings.TrimSpace(tag)
	if !ok || path == "" || tag == "" {
		return config.ExplicitRequest{}, fmt.Errorf("request %q must have the form path=Tag", value)
	}
	return config.ExplicitRequest{Path: path, Format: tag}, nil
}

// ExplicitRequests resolves configured requests against the project root.
func ExplicitRequests(projectRoot string, entries []config.ExplicitRequest) []planner.ExplicitRequest {
	out := make([]planner.ExplicitRequest, 0, len(entries))
	for _, entry := range entries {
		out = append(out, planner.ExplicitRequest{Identity: ResolvePath(projectRoot, entry.Path), Format: entry.Format})
	}
	return out
}
