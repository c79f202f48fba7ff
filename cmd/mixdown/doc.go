// Package main hosts the mixdown CLI entrypoint and command graph.
//
// The Cobra-based command tree runs mix jobs locally, serves them over HTTP,
// and exposes history, dependency and workspace maintenance commands. It
// centralizes configuration resolution, logger setup and pipeline wiring so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
