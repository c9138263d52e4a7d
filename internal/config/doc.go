// Package config handles configuration loading, parsing, and validation
// from environment variables, .env files, and an optional config file.
// Environment variables use the MONTAGE_ prefix with nested keys joined by
// underscores (for example MONTAGE_PROVIDER_API_KEY).
package config
