package walog

import "errors"

var (
	// ErrIncomplete means the log ends mid-frame: the writer was killed
	// before finishing its last append. This is the expected shape of a
	// crash and is always recoverable — replay simply stops there.
	ErrIncomplete = errors.New("walog: incomplete trailing frame")

	// ErrCorrupt means a frame's checksum did not match its payload, or
	// the header failed to parse. Unlike ErrIncomplete this can never be
	// produced by an ordinary crash mid-append, so replay treats it as
	// fatal (spec.md §4.9/§4.10 fail-closed recovery).
	ErrCorrupt = errors.New("walog: corrupt frame")

	// ErrVersionMismatch means the log header names an unsupported
	// format_version.
	ErrVersionMismatch = errors.New("walog: version mismatch")
)
