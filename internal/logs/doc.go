// Package logs reads the mixdown log file for the CLI: the trailing lines of
// the file and, when following, lines appended afterwards.
package logs
