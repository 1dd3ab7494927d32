// Package filelock provides the single-writer advisory lock every
// process opening a Valori data directory for writing must hold, backed
// by gofrs/flock.
package filelock

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofrs/flock"
)

// errHeld signals the backoff loop to retry; it never escapes Acquire.
var errHeld = errors.New("filelock: held by another process")

// Lock wraps an advisory file lock at path.
type Lock struct {
	f *flock.Flock
}

// Acquire retries with exponential backoff until ctx's deadline, since
// another process's writer may only briefly hold the lock (e.g. mid
// checkpoint rotation).
func Acquire(ctx context.Context, path string) (*Lock, error) {
	f := flock.New(path)
	b := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)

	err := backoff.Retry(func() error {
		ok, err := f.TryLock()
		if err != nil {
			return backoff.Permanent(err)
		}

		if !ok {
			return errHeld
		}

		return nil
	}, b)
	if err != nil {
		return nil, err
	}

	return &Lock{f: f}, nil
}

// Release drops the lock.
func (l *Lock) Release() error { return l.f.Unlock() }
