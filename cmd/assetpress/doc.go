// Command assetpress precompresses static assets for a project.
//
// `assetpress plan` shows which (asset, format) pairs a build would produce,
// `assetpress compress` produces them, and `assetpress manifest` inspects the
// record of artifacts already written. Configuration lives in
// ./assetpress.toml or ~/.config/assetpress/config.toml; see `assetpress
// config init`.
package main
