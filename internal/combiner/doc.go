// Package combiner merges two audio clips into one stereo track.
//
// Combine writes both inputs into the engine workspace, probes their
// durations, trims the longer clip so both last as long as the shorter one
// (dropping leading audio), downmixes each to mono, merges the pair into two
// channels and encodes the result. Every workspace entry the call reserved is
// deleted before Combine returns, whatever the outcome; deletion failures are
// reported as warnings on the Result.
//
// Entry names carry a per-call prefix so concurrent calls can share one
// engine.
package combiner
