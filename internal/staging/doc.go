// Package staging sweeps the engine workspace of entries left behind by
// processes that exited before their cleanup ran.
//
// The sweep takes the workspace lock exclusively. A live engine holds the
// same lock shared, so a sweep never races a running combine; it is
// skipped instead.
package staging
