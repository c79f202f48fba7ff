// Package config loads, normalizes, and validates mixdown configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MIXDOWN_API_TOKEN. The Config type centralizes every knob the CLI and the
// HTTP service need: the engine workspace, ffmpeg binaries, mix encoding
// parameters, probing strategy, and fetch limits.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
