// Package services defines shared utilities consumed by the mix pipeline and
// its host surfaces.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs and correlation identifiers for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that tag failures with the
//     pipeline stage that produced them (fetch, load, write, decode, exec,
//     read).
//   - KindOf, which recovers the stage kind from a wrapped error so transports
//     can map failures to statuses without parsing messages.
//
// Use these helpers when wiring new pipeline code so error handling and
// observability stay uniform between the CLI and the HTTP service.
package services
