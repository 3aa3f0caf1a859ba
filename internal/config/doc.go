// Package config loads, normalizes, and validates sleeve configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file, and honours
// SLEEVE_* environment overrides. Evidence weights and decision thresholds are
// deliberately absent: they are constants of the identification package so
// that scoring stays reproducible across machines.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
