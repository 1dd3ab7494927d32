package recovery

import "path/filepath"

// Fixed file names within a Valori data directory. A directory holds at
// most one current snapshot, one current log, and the immediately prior
// log generation kept as a safety margin across a checkpoint (spec.md
// §4.11).
const (
	snapshotName    = "snapshot"
	snapshotTmpName = "snapshot.tmp"
	logName         = "log"
	logPrevName     = "log.prev"
	lockName        = "writer.lock"
)

func snapshotPath(dataDir string) string    { return filepath.Join(dataDir, snapshotName) }
func snapshotTmpPath(dataDir string) string { return filepath.Join(dataDir, snapshotTmpName) }
func logPath(dataDir string) string         { return filepath.Join(dataDir, logName) }
func logPrevPath(dataDir string) string     { return filepath.Join(dataDir, logPrevName) }

// LockPath is the advisory single-writer lock file for dataDir, shared by
// pkg/commit's Pipeline and Checkpoint so the two can never race.
func LockPath(dataDir string) string { return filepath.Join(dataDir, lockName) }
