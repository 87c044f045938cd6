// Package config loads the youseo configuration from YAML, layers a
// project-local overlay and environment overrides on top, and converts the
// result into cache and logging settings. Loading never fails: missing or
// malformed input falls back to defaults.
package config
