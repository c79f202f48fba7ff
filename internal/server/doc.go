// Package server exposes mix jobs over HTTP.
//
// Routes:
//
//	POST /api/combine     run a job, respond with the encoded audio
//	GET  /api/jobs        list history (limit, status query parameters)
//	GET  /api/jobs/{id}   describe one job
//	GET  /api/status      dependency, preflight and engine report
//	GET  /metrics         Prometheus exposition
//
// Every route sits behind bearer-token authentication when a token is
// configured. Failures are JSON ErrorResponse bodies whose status code is
// derived from the error kind.
package server
