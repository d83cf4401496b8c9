// Package output provides formatters for displaying hittest command results.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: Machine-readable JSON output
//   - Table: Cookie jars as bordered tables
//
// All formatters render encoded parameter files and cookie jar contents.
package output
