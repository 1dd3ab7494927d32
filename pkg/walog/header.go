package walog

import "encoding/binary"

// headerMagic and headerFormatVersion identify the write-ahead log file
// format of spec.md §4.9. Every log file begins with a fixed header so a
// reader never has to guess the dimension or checksum width a batch of
// frames was written with.
const (
	headerMagic         = "VWAL"
	headerFormatVersion = uint8(1)
	headerSize          = 4 + 1 + 1 + 4 + 1 // magic + version + encoding + dim + cksumLen
)

// Encoding names the payload encoding frames in this log use. Only
// EncodingCommands (gob-free, kernel.Command values encoded by
// pkg/commit) exists today; the byte is reserved for a future wire
// format without breaking old logs.
type Encoding uint8

const (
	EncodingCommands Encoding = 1
)

// Header is the fixed preamble of a log file.
type Header struct {
	Encoding    Encoding
	Dim         uint32
	ChecksumLen uint8
}

// Encode serializes h as the first headerSize bytes of a new log file.
func (h Header) Encode() []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:4], headerMagic)
	buf[4] = headerFormatVersion
	buf[5] = byte(h.Encoding)
	binary.LittleEndian.PutUint32(buf[6:10], h.Dim)
	buf[10] = h.ChecksumLen

	return buf
}

// DecodeHeader parses the leading headerSize bytes of a log file.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < headerSize {
		return Header{}, ErrIncomplete
	}

	if string(data[0:4]) != headerMagic {
		return Header{}, ErrCorrupt
	}

	if data[4] != headerFormatVersion {
		return Header{}, ErrVersionMismatch
	}

	return Header{
		Encoding:    Encoding(data[5]),
		Dim:         binary.LittleEndian.Uint32(data[6:10]),
		ChecksumLen: data[10],
	}, nil
}
