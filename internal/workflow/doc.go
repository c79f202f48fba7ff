// Package workflow runs mix jobs end to end.
//
// A job validates its two sources, fetches them concurrently, hands the
// buffers to the combiner and records the outcome in job history and
// metrics. The CLI and the HTTP service both drive jobs through Runner so
// the two surfaces share identical semantics.
package workflow
