// Package preflight provides readiness checks for the binaries and
// filesystem paths mixdown depends on.
//
// The serve command runs RunAll before binding the listener and refuses to
// start when a required check fails. The CLI "deps" command and the
// /api/status endpoint render the same results.
package preflight
