// Package probe reports the play length of in-memory audio buffers.
//
// Native decodes WAV, AIFF, Ogg Vorbis and MP3 headers in process. FFprobe
// pipes the buffer through the ffprobe binary and handles everything else.
// Chain tries probers in order and Cached memoizes results by content digest.
// New assembles the combination selected by configuration.
//
// Every prober rejects zero, negative, NaN and infinite lengths; callers
// never receive a duration they cannot trim against.
package probe
