package walog

import (
	"encoding/binary"

	"lukechampine.com/blake3"
)

// frameVersion is the per-frame format tag (spec.md §4.9's
// `[version:u8=0x01][length:u32 LE][payload]`); bumping it lets a future
// frame shape coexist in tooling that reads old logs.
const frameVersion = uint8(1)

const frameHeaderSize = 1 + 4 // version + length

// Frame is one length-prefixed, checksummed record in the log: one
// commit batch's encoded commands.
type Frame struct {
	Payload []byte
}

// encodeFrame serializes payload as version, length, payload, then a
// checksumLen prefix of the payload's BLAKE3-256 digest.
func encodeFrame(payload []byte, checksumLen int) []byte {
	out := make([]byte, 0, frameHeaderSize+len(payload)+checksumLen)

	var head [frameHeaderSize]byte
	head[0] = frameVersion
	binary.LittleEndian.PutUint32(head[1:5], uint32(len(payload)))

	out = append(out, head[:]...)
	out = append(out, payload...)

	sum := blake3.Sum256(payload)
	out = append(out, sum[:checksumLen]...)

	return out
}

// decodeFrame parses one frame starting at data[0], returning the frame,
// the number of bytes consumed, and an error. ErrIncomplete means data is
// too short to contain a full frame (the writer may still be mid-append);
// ErrCorrupt means a full frame was present but its checksum didn't
// match, or its version tag is unrecognized.
func decodeFrame(data []byte, checksumLen int) (Frame, int, error) {
	if len(data) < frameHeaderSize {
		return Frame{}, 0, ErrIncomplete
	}

	if data[0] != frameVersion {
		return Frame{}, 0, ErrCorrupt
	}

	length := int(binary.LittleEndian.Uint32(data[1:5]))
	total := frameHeaderSize + length + checksumLen

	if len(data) < total {
		return Frame{}, 0, ErrIncomplete
	}

	payload := data[frameHeaderSize : frameHeaderSize+length]
	wantSum := data[frameHeaderSize+length : total]

	gotSum := blake3.Sum256(payload)
	if string(gotSum[:checksumLen]) != string(wantSum) {
		return Frame{}, 0, ErrCorrupt
	}

	owned := make([]byte, length)
	copy(owned, payload)

	return Frame{Payload: owned}, total, nil
}
