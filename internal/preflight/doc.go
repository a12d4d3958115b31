// Package preflight provides readiness checks for the directories and
// settings assetpress depends on.
//
// `assetpress doctor` runs RunAll and prints every result; `assetpress
// compress` runs the directory checks before taking the lock so a doomed run
// fails before any temp file is written.
package preflight
