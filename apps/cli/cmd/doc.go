// Package cmd implements the hittest CLI commands using Cobra.
//
// Available commands:
//   - encode: Render a YAML or JSON parameter file as a query string or multipart body
//   - cookies: Feed Set-Cookie lines through a cookie jar and show what would be sent back
//   - validate: Check parameter files load and their references resolve
//   - init: Create a config file and an example parameter file
//   - completion: Generate shell completion scripts
//   - version: Show hittest version information
//
// Settings come from a .hittest.json or .hittest.yaml config file, with
// HITTEST_* environment variables and command line flags taking precedence.
package cmd
