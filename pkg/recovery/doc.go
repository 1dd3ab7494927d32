// Package recovery loads a Kernel from a data directory's snapshot and
// write-ahead log, and checkpoints a live Kernel back to disk, rotating
// the log so it never grows past one checkpoint interval's worth of
// batches.
package recovery
