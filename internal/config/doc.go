// Package config loads, normalizes, and validates markerq configuration.
//
// Configuration is a single TOML file (default ~/.config/markerq/config.toml)
// decoded over compiled-in defaults. Path fields are ~-expanded and made
// absolute during normalization so the rest of the codebase never handles
// relative or home-anchored paths.
package config
