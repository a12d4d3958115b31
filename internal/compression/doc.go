// Package compression owns the closed set of precompression formats and their
// encoders.
//
// Every format is described by one row of a static table: the token used in
// `;`-delimited format lists ("gzip;brotli"), the tag used by explicit
// per-asset requests ("BuildCompressionGzip"), the file suffix appended to the
// original name, and the HTTP Content-Encoding it serves as. Both input
// representations resolve to the same Format value, so callers never compare
// suffix or token strings directly.
//
// Encoders wrap klauspost/compress for gzip and andybalholm/brotli for brotli.
package compression
