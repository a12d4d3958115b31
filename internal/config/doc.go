// Package config loads, normalizes, and validates assetpress configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the ASSETPRESS_OUTPUT_ROOT
// environment fallback. Relative output and state paths resolve against the
// project root, so one file fully describes a project.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical format lists, and clear validation errors.
package config
