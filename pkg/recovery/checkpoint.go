package recovery

import (
	"context"
	"os"

	"github.com/valori-dev/valori/internal/atomicfile"
	"github.com/valori-dev/valori/internal/filelock"
	"github.com/valori-dev/valori/pkg/kernel"
)

// Checkpoint snapshots k and rotates dataDir's log, per spec.md §4.11's
// exact ordering: write the new snapshot to a temp path and fsync it,
// rotate the current log to .prev and start a fresh one, then atomically
// publish the new snapshot over the old one. The prior log.prev
// generation is removed just before the current log is rotated into its
// place, so at most one previous log generation exists at any time.
//
// Checkpoint takes dataDir's writer lock itself: it must never run
// concurrently with a commit.Pipeline appending to the same log.
func Checkpoint(ctx context.Context, dataDir string, k *kernel.Kernel) error {
	lock, err := filelock.Acquire(ctx, LockPath(dataDir))
	if err != nil {
		return err
	}
	defer lock.Release()

	tmpPath := snapshotTmpPath(dataDir)
	if err := atomicfile.WriteFile(tmpPath, k.EncodeSnapshot()); err != nil {
		return err
	}

	prevPath := logPrevPath(dataDir)
	if err := os.Remove(prevPath); err != nil && !os.IsNotExist(err) {
		return err
	}

	currentLog := logPath(dataDir)
	if err := os.Rename(currentLog, prevPath); err != nil && !os.IsNotExist(err) {
		return err
	}

	if err := initLog(currentLog, k); err != nil {
		return err
	}

	return os.Rename(tmpPath, snapshotPath(dataDir))
}
