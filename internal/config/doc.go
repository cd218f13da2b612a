// Package config defines configuration for the download-papertrail CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (PAPERTRAIL_ prefix, plus .env files)
//   - YAML configuration file
//
// Later sources override earlier ones: defaults, then file, then
// environment, then flags.
package config
