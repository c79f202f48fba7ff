// Package ffprobe provides a typed wrapper around ffprobe JSON output for
// audio containers.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio stream properties
//   - Format: container-level metadata (duration, size, bitrate)
//
// Entry points:
//   - Inspect: runs ffprobe against a file path
//   - InspectReader: runs ffprobe against an in-memory payload piped on stdin
package ffprobe
