// Package atomicfile writes files so a reader never observes a partial
// write: data lands at a temporary path, is fsynced, then atomically
// renamed over the destination. This is the durability primitive every
// snapshot write in pkg/recovery is built on.
package atomicfile

import (
	"bytes"

	"github.com/natefinch/atomic"
)

// WriteFile atomically replaces path's contents with data. On success,
// any process opening path afterward sees either the old or the new
// content in full, never a mix.
func WriteFile(path string, data []byte) error {
	return atomic.WriteFile(path, bytes.NewReader(data))
}
