// Package config loads and validates pipeline configuration.
//
// Configuration comes from a YAML file with environment variable overrides
// (BFPIPELINE_SECTION_KEY pattern). Credentials for the upstream API and the
// time-series store are expected via environment, typically populated from a
// .env file by the main package.
//
// The loaded Config is constructed once at process start and passed by
// reference into each component; no package holds ambient configuration
// state.
package config
