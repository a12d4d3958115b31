// Package manifest records every compressed artifact assetpress produced in a
// small SQLite database under the state directory.
//
// Each row ties an output path to its source, format, and the blake3 digest
// and size of the source at compression time. Discovery uses the digest to
// decide whether an artifact found on disk is still current, which is what
// lets repeated builds skip work they already did.
//
// Schema changes bump schemaVersion in schema.go; users delete the database
// (or run `assetpress manifest prune --all`) to adopt the new schema.
package manifest
