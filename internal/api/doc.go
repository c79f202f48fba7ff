// Package api defines the wire-format types shared by the HTTP service and
// the CLI. It translates history records into transport-friendly DTOs so
// clients can render jobs without coupling to storage types.
//
// # Key Types
//
// CombineRequest: the JSON body of POST /api/combine.
//
// ErrorResponse: the JSON body of every failed request, carrying the
// pipeline stage the failure came from as Kind.
//
// Job / JobListResponse / JobResponse: history entries.
//
// ServiceStatus: dependency, preflight and engine readiness report.
//
// # Design Notes
//
// JSON tags are snake_case to match the request body. Timestamps use RFC3339
// with milliseconds. Durations are seconds as floats; elapsed wall time is
// milliseconds.
package api
