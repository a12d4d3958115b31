// Package assets turns a project tree into planner candidates.
//
// Discover walks the project root and the output root. Project files become
// plain candidates; compressed files under the output root are linked back to
// their origin so the planner treats them as already produced. An artifact is
// only linked while it is current: its manifest row must carry the source's
// present blake3 digest, or, for artifacts the manifest does not know, the
// artifact must be at least as new as its source. Stale artifacts are left
// out and reported, which makes the planner schedule them again.
package assets
