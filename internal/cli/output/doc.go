// Package output provides output formatting for quiescectl.
//
// This package handles all CLI output formatting:
//
//   - formatter.go: Formatter interface and factory
//   - text.go: Human-readable key/value rendering
//   - json.go: JSON output formatting
//   - spinner.go: Progress animation for long operations
//
// Formatters support machine-readable output for scripting (json) and a
// plain text mode for humans.
package output
