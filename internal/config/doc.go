// Package config loads, normalizes, and validates flacpress configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob
// the CLI needs: tool binaries, encoder and archiver tuning, log output,
// and the run-history database location.
//
// Always obtain settings through this package so downstream code receives
// sanitized absolute paths and clear validation errors.
package config
