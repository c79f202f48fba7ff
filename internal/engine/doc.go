// Package engine drives the transcoding engine used to combine audio.
//
// The engine is a native ffmpeg binary operating on a private workspace
// directory. Callers never touch the directory directly: they write named
// entries, execute argument lists whose file operands are entry names, read
// entries back and delete them.
//
// Accessor owns the engine lifecycle. The first Acquire loads the engine;
// callers that arrive while the load is in flight share its outcome; a failed
// load leaves the accessor uninitialized so the next Acquire retries.
package engine
