// Package history persists mix jobs in SQLite.
//
// Each Combine invocation driven by the workflow runner is recorded as a job
// row when it starts and updated with its outcome when it finishes. The CLI
// history command and the HTTP job endpoints read from here.
//
// The schema is versioned; a database created by an incompatible build is
// rejected with ErrSchemaMismatch rather than migrated.
package history
