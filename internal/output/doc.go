// Package output formats run reports for display or machine consumption.
//
// Three formats are supported:
//   - text     — human-readable terminal output (default)
//   - json     — full structured JSON report
//   - markdown — summary table plus per-commit before/after sections
//
// Use [GetWriter] to obtain a [Writer] for a given format string, or
// [WriteReport] to write straight to a file path or stdout.
package output
