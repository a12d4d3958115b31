// Package planner decides which (asset, format) pairs a build must compress and
// where each artifact is written.
//
// Plan is a pure function over caller-supplied inputs: candidate assets,
// explicit per-format requests, include/exclude pattern sets, and the default
// format list. It performs no I/O and keeps no state between calls, so
// incremental safety comes entirely from the candidates themselves: an asset
// whose OriginalSourcePath points at another candidate and whose name carries a
// format suffix is a previously produced artifact, and its pair is never
// scheduled again.
//
// Job order is stable: explicit-request jobs in request order, then
// pattern-derived jobs in candidate order and format-list order. Each
// (identity, format) pair appears at most once and output paths are pairwise
// distinct, which lets callers compress jobs in parallel.
package planner
