package index

import "errors"

// ErrUnrecognizedScheme is returned by Index.Restore when the scheme tag in
// a snapshot's index_section does not match the implementation's own tag.
// Callers fall back to rebuilding the index from records (spec.md §4.8).
var ErrUnrecognizedScheme = errors.New("index: unrecognized scheme")
