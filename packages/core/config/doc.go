// Package config handles configuration loading and management for hittest.
//
// It provides functionality for:
//   - Loading configuration from .hittest.json or .hittest.yaml files
//   - Default session values (host, headers, redirects, remote address)
//   - Merging command line overrides onto file settings
package config
