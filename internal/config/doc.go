// Package config loads, overrides, and validates voxcaption configuration.
//
// Settings come from repository defaults, then an optional TOML file, then
// VOXCAPTION_* environment variables. The result is read once per process and
// handed to engines, which copy their section at construction and never see
// later changes.
package config
