// Package analysis holds the pure parts of repository analysis: GitHub URL
// parsing, dependency version parsing, scenario classification, issue
// detection and staleness. Nothing in this package performs I/O, so every
// function returns the same output for the same input.
package analysis
