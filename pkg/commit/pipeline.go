package commit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/valori-dev/valori/internal/filelock"
	"github.com/valori-dev/valori/pkg/kernel"
	"github.com/valori-dev/valori/pkg/walog"
)

// Pipeline guards a live Kernel with a single-writer file lock and an
// append-only log, implementing spec.md §4.10's three-phase commit:
// shadow-validate a batch against a Clone, persist it to the log with
// fsync, then apply it to the live kernel. A batch is visible to readers
// only once all three phases succeed.
type Pipeline struct {
	live   *kernel.Kernel
	writer *walog.Writer
	lock   *filelock.Lock
}

// BatchResult reports the outcome of one committed batch. RequestID is a
// caller-correlation id only — it is never hashed into kernel state and
// has no bearing on determinism.
type BatchResult struct {
	RequestID   uuid.UUID
	Assignments []kernel.Assignment
	StateHash   kernel.StateHash
}

// DefaultLockTimeout is a ten-second bound on waiting for the
// single-writer lock. Open does not apply it itself: its wait is bounded
// only by ctx and by the retry policy of internal/filelock.
const DefaultLockTimeout = 10 * time.Second

// Open acquires lockPath's advisory lock (retrying with exponential
// backoff, since another process's writer may briefly be mid-commit) and
// opens logPath for appending. live is the kernel this pipeline will
// advance; it must already be caught up to logPath's current contents
// (pkg/recovery is responsible for that before handing off to Open).
func Open(ctx context.Context, live *kernel.Kernel, logPath string, lockPath string) (*Pipeline, error) {
	lock, err := filelock.Acquire(ctx, lockPath)
	if err != nil {
		return nil, err
	}

	writer, err := walog.OpenForAppend(logPath, walog.DefaultChecksumLen)
	if err != nil {
		lock.Release()
		return nil, err
	}

	return &Pipeline{live: live, writer: writer, lock: lock}, nil
}

// Commit runs the three-phase pipeline for one batch of commands.
func (p *Pipeline) Commit(cmds []kernel.Command) (BatchResult, error) {
	shadow := p.live.Clone()

	if _, err := shadow.ApplyBatch(cmds); err != nil {
		return BatchResult{}, err
	}

	if err := p.writer.Append(EncodeBatch(cmds)); err != nil {
		return BatchResult{}, err
	}

	assignments, err := p.live.ApplyBatch(cmds)
	if err != nil {
		// The shadow validated this exact batch against an identical
		// clone of the live state; a live-apply failure here means the
		// kernel's Apply is non-deterministic or the clone diverged,
		// either of which is a programming error, not a recoverable
		// runtime condition.
		panic("commit: live apply failed after shadow validation succeeded: " + err.Error())
	}

	return BatchResult{RequestID: uuid.New(), Assignments: assignments, StateHash: p.live.StateHash()}, nil
}

// Close releases the file lock and closes the log writer.
func (p *Pipeline) Close() error {
	if err := p.writer.Close(); err != nil {
		p.lock.Release()
		return err
	}

	return p.lock.Release()
}
