package testsupport

import (
	"path/filepath"
	"testing"

	"assetpress/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The project root is <base>/site, the output root <base>/site/obj/compressed,
// and the state directory <base>/state.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ProjectRoot = filepath.Join(base, "site")
	cfgVal.Paths.OutputRoot = filepath.Join(base, "site", "obj", "compressed")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Compression.Workers = 2
	cfgVal.Compression.GzipLevel = 6
	cfgVal.Compression.BrotliLevel = 5
	cfgVal.Logging.WriteFile = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithFormats overrides the default format list.
func WithFormats(list string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Compression.Formats = list
	}
}

// WithPatterns overrides the include and exclude pattern strings.
func WithPatterns(include, exclude string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Compression.Include = include
		b.cfg.Compression.Exclude = exclude
	}
}

// WithExplicit appends an explicit request for a project-relative path.
func WithExplicit(path, tag string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Compression.Explicit = append(b.cfg.Compression.Explicit, config.ExplicitRequest{Path: path, Format: tag})
	}
}

// WithOutputRoot overrides the output root. An empty value leaves it unset.
func WithOutputRoot(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.OutputRoot = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
