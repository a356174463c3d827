// Package config loads, normalizes, and validates framemill configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and validates the pipeline geometry (chunk
// size, inference batch size, worker count) so invariant-bearing values are
// checked once at startup. The Config type centralizes every knob the CLI
// and pipeline need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
