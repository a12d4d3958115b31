// Package compressor executes planned compression jobs.
//
// A Compressor takes an exclusive lock on the state directory, fans jobs out
// to a bounded set of workers, and streams each source through its format
// encoder into a temporary file beside the destination before renaming it
// into place. Every job yields its own JobResult; one failure never stops
// the others. Successful artifacts are recorded in the manifest together with
// the blake3 digest of the bytes that were compressed.
package compressor
