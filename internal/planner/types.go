package planner

import (
	"assetpress/internal/compression"
)

// Asset is one static file eligible for compression.
type Asset struct {
	// Identity is the unique, stable key of the asset, usually an absolute path.
	Identity string
	// OriginalSourcePath links a derived asset back to the uncompressed file it
	// came from. Empty for plain source files.
	OriginalSourcePath string
	// RelativePath is the project-relative path used for pattern matching and
	// for deriving the output path.
	RelativePath string
	// Metadata is carried through to jobs unchanged.
	Metadata map[string]string
}

// ExplicitRequest asks for one asset to be compressed in one format regardless
// of include/exclude patterns. Format holds a tag such as
// "BuildCompressionGzip".
type ExplicitRequest struct {
	Identity string
	Format   string
}

// Job is one planned unit of compression work.
type Job struct {
	Source     Asset
	Format     compression.Format
	OutputPath string
	// Explicit is set when the job came from an ExplicitRequest.
	Explicit bool
}

// MatchFunc reports whether path matches any pattern in patterns.
type MatchFunc func(path string, patterns []string) bool

// Request bundles every planner input.
type Request struct {
	Candidates []Asset
	Explicit   []ExplicitRequest
	// Include and Exclude are `;`-delimited glob pattern sets.
	Include string
	Exclude string
	// Formats is the `;`-delimited default format list, e.g. "gzip;brotli".
	Formats    string
	OutputRoot string
	// Match defaults to pattern.Match when nil.
	Match MatchFunc
}

// Diagnostic is a structured planner error record. Planning is a pure
// computation, so records carry a message only.
type Diagnostic struct {
	Message string
}

func (d Diagnostic) Error() string { return d.Message }

// SkipReason explains why a candidate pair produced no job.
type SkipReason string

const (
	SkipAlreadyProduced SkipReason = "already_produced"
	SkipDuplicate       SkipReason = "duplicate"
	SkipUnresolved      SkipReason = "unresolved"
	SkipArtifact        SkipReason = "produced_artifact"
	SkipExcluded        SkipReason = "excluded"
)

// Skip records a decision not to emit a job. Format is zero when the decision
// applies to the asset as a whole.
type Skip struct {
	Identity string
	Format   compression.Format
	Reason   SkipReason
}

// Result is the outcome of one planning pass. When Success is false Jobs is
// empty and Errors holds at least one record.
type Result struct {
	Jobs    []Job
	Skipped []Skip
	Success bool
	Errors  []Diagnostic
}
