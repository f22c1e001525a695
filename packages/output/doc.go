// Package output provides formatters for displaying command results.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: Machine-readable JSON output, written once on Flush
package output
