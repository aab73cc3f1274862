// Package config loads, normalizes, and validates scribe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SCRIBE_API_URL and SCRIBE_STATE_DIR. The Config type centralizes the API
// address, the durable storage backend for the session, and logging options.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
