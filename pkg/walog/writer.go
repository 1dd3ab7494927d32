package walog

import "os"

// DefaultChecksumLen is the number of leading BLAKE3-256 bytes kept per
// frame — enough to catch torn writes and bit flips without paying for a
// full 32-byte digest on every small batch.
const DefaultChecksumLen = 8

// Writer appends frames to an open log file, fsyncing after every append
// so a crash never loses an acknowledged commit (spec.md §4.9/§4.10).
type Writer struct {
	file        *os.File
	checksumLen int
}

// Create opens path for a brand-new log, writing header first.
func Create(path string, header Header) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	if _, err := f.Write(header.Encode()); err != nil {
		f.Close()
		return nil, err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return nil, err
	}

	return &Writer{file: f, checksumLen: int(header.ChecksumLen)}, nil
}

// OpenForAppend reopens an existing log file for appending further
// frames, e.g. after the kernel validates a pending batch against the
// live state.
func OpenForAppend(path string, checksumLen int) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	return &Writer{file: f, checksumLen: checksumLen}, nil
}

// Append writes one frame and fsyncs before returning, so the caller can
// treat a successful Append as durable.
func (w *Writer) Append(payload []byte) error {
	if _, err := w.file.Write(encodeFrame(payload, w.checksumLen)); err != nil {
		return err
	}

	return w.file.Sync()
}

// Close closes the underlying file.
func (w *Writer) Close() error { return w.file.Close() }
