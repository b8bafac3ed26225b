// Package config loads, normalizes, and validates the recipe API configuration.
//
// Values come from three layers, later layers winning: repository defaults,
// an optional TOML file, and environment variables (PORT, DB_PATH,
// MEDIA_ROOT, JWT_SECRET, ...). Entry points load a .env file into the
// environment before calling Load.
package config
