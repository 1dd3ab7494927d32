package walog

import (
	"errors"
	"io"
	"os"

	"lukechampine.com/blake3"
)

// Reader sequentially decodes frames from a log file, starting just past
// its header.
type Reader struct {
	Header      Header
	data        []byte
	pos         int
	checksumLen int
}

// Open reads the entire file at path and parses its header. Reading the
// whole log into memory is acceptable here: logs are checkpointed and
// truncated on every snapshot (spec.md §4.11), so they never grow past a
// bounded number of uncommitted batches.
func Open(path string) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return OpenBytes(data)
}

// OpenBytes parses an already-loaded log image, for callers (e.g.
// pkg/recovery) that read the file themselves.
func OpenBytes(data []byte) (*Reader, error) {
	header, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}

	return &Reader{Header: header, data: data, pos: headerSize, checksumLen: int(header.ChecksumLen)}, nil
}

// Next returns the next frame's payload. It returns io.EOF at a clean end
// of file, ErrIncomplete if the file ends mid-frame (an unfinished
// append from a crash — callers stop replay here without error), and
// ErrCorrupt if a full frame's checksum fails to validate.
func (r *Reader) Next() ([]byte, error) {
	if r.pos == len(r.data) {
		return nil, io.EOF
	}

	frame, n, err := decodeFrame(r.data[r.pos:], r.checksumLen)
	if err != nil {
		return nil, err
	}

	r.pos += n

	return frame.Payload, nil
}

// ReadAll drains every frame, treating a trailing ErrIncomplete as a
// normal (non-error) end of stream — exactly the semantics log replay
// after a crash needs.
func (r *Reader) ReadAll() ([][]byte, error) {
	var frames [][]byte

	for {
		payload, err := r.Next()
		if errors.Is(err, io.EOF) || errors.Is(err, ErrIncomplete) {
			return frames, nil
		}

		if err != nil {
			return frames, err
		}

		frames = append(frames, payload)
	}
}

// FileHash returns the BLAKE3-256 digest of the whole log file image,
// header included. Nothing in this repository stores or checks it;
// pkg/recovery replays logs without hashing them.
func FileHash(data []byte) [32]byte {
	return blake3.Sum256(data)
}
