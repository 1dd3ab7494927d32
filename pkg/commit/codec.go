package commit

import (
	"encoding/binary"
	"fmt"

	"github.com/valori-dev/valori/pkg/fxp"
	"github.com/valori-dev/valori/pkg/kernel"
	"github.com/valori-dev/valori/pkg/vecmath"
)

// Command tags for the log's wire encoding. Values are part of the
// on-disk format and must never be renumbered once a log exists.
const (
	tagInsertRecord     = uint8(0)
	tagSoftDeleteRecord = uint8(1)
	tagCreateNode       = uint8(2)
	tagDeleteNode       = uint8(3)
	tagCreateEdge       = uint8(4)
	tagDeleteEdge       = uint8(5)
	tagSetMetadata      = uint8(6)
)

// EncodeBatch serializes a batch of kernel.Command values into one log
// frame payload, in the order they must be replayed.
func EncodeBatch(cmds []kernel.Command) []byte {
	buf := make([]byte, 0, 64*len(cmds))
	buf = appendU32(buf, uint32(len(cmds)))

	for _, cmd := range cmds {
		buf = appendCommand(buf, cmd)
	}

	return buf
}

func appendCommand(buf []byte, cmd kernel.Command) []byte {
	switch c := cmd.(type) {
	case kernel.InsertRecord:
		buf = append(buf, tagInsertRecord)
		buf = appendBool(buf, c.HasTag)
		buf = appendU64(buf, c.Tag)
		buf = appendU32(buf, uint32(len(c.Vector)))

		for _, s := range c.Vector {
			buf = appendU32(buf, uint32(int32(s)))
		}

	case kernel.SoftDeleteRecord:
		buf = append(buf, tagSoftDeleteRecord)
		buf = appendU32(buf, uint32(c.ID))

	case kernel.CreateNode:
		buf = append(buf, tagCreateNode)
		buf = append(buf, c.Kind)
		buf = appendBool(buf, c.HasRecord)
		buf = appendU32(buf, uint32(c.Record))

	case kernel.DeleteNode:
		buf = append(buf, tagDeleteNode)
		buf = appendU32(buf, uint32(c.ID))

	case kernel.CreateEdge:
		buf = append(buf, tagCreateEdge)
		buf = append(buf, c.Kind)
		buf = appendU32(buf, uint32(c.From))
		buf = appendU32(buf, uint32(c.To))

	case kernel.DeleteEdge:
		buf = append(buf, tagDeleteEdge)
		buf = appendU32(buf, uint32(c.ID))

	case kernel.SetMetadata:
		buf = append(buf, tagSetMetadata)
		buf = appendU32(buf, uint32(c.ID))
		buf = appendU32(buf, uint32(len(c.Value)))
		buf = append(buf, c.Value...)

	default:
		panic(fmt.Sprintf("commit: unknown command type %T", cmd))
	}

	return buf
}

// DecodeBatch parses the payload produced by EncodeBatch.
func DecodeBatch(data []byte) ([]kernel.Command, error) {
	r := &cursor{data: data}

	count, err := r.u32()
	if err != nil {
		return nil, err
	}

	cmds := make([]kernel.Command, 0, count)

	for i := uint32(0); i < count; i++ {
		cmd, err := decodeOne(r)
		if err != nil {
			return nil, err
		}

		cmds = append(cmds, cmd)
	}

	if !r.exhausted() {
		return nil, kernel.ErrCorrupt
	}

	return cmds, nil
}

func decodeOne(r *cursor) (kernel.Command, error) {
	tag, err := r.byte()
	if err != nil {
		return nil, err
	}

	switch tag {
	case tagInsertRecord:
		hasTag, err := r.boolean()
		if err != nil {
			return nil, err
		}

		recTag, err := r.u64()
		if err != nil {
			return nil, err
		}

		dim, err := r.u32()
		if err != nil {
			return nil, err
		}

		vector := make(vecmath.Vector, dim)
		for d := uint32(0); d < dim; d++ {
			raw, err := r.u32()
			if err != nil {
				return nil, err
			}

			vector[d] = fxp.Scalar(int32(raw))
		}

		return kernel.InsertRecord{Vector: vector, Tag: recTag, HasTag: hasTag}, nil

	case tagSoftDeleteRecord:
		id, err := r.u32()
		if err != nil {
			return nil, err
		}

		return kernel.SoftDeleteRecord{ID: kernel.RecordID(id)}, nil

	case tagCreateNode:
		kind, err := r.byte()
		if err != nil {
			return nil, err
		}

		hasRecord, err := r.boolean()
		if err != nil {
			return nil, err
		}

		record, err := r.u32()
		if err != nil {
			return nil, err
		}

		return kernel.CreateNode{Kind: kind, Record: kernel.RecordID(record), HasRecord: hasRecord}, nil

	case tagDeleteNode:
		id, err := r.u32()
		if err != nil {
			return nil, err
		}

		return kernel.DeleteNode{ID: kernel.NodeID(id)}, nil

	case tagCreateEdge:
		kind, err := r.byte()
		if err != nil {
			return nil, err
		}

		from, err := r.u32()
		if err != nil {
			return nil, err
		}

		to, err := r.u32()
		if err != nil {
			return nil, err
		}

		return kernel.CreateEdge{Kind: kind, From: kernel.NodeID(from), To: kernel.NodeID(to)}, nil

	case tagDeleteEdge:
		id, err := r.u32()
		if err != nil {
			return nil, err
		}

		return kernel.DeleteEdge{ID: kernel.EdgeID(id)}, nil

	case tagSetMetadata:
		id, err := r.u32()
		if err != nil {
			return nil, err
		}

		length, err := r.u32()
		if err != nil {
			return nil, err
		}

		value, err := r.take(int(length))
		if err != nil {
			return nil, err
		}

		return kernel.SetMetadata{ID: kernel.RecordID(id), Value: value}, nil

	default:
		return nil, kernel.ErrCorrupt
	}
}

func appendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)

	return append(buf, b[:]...)
}

func appendU64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)

	return append(buf, b[:]...)
}

func appendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}

	return append(buf, 0)
}

// cursor is a bounds-checked reader identical in spirit to
// pkg/kernel's byteReader, kept package-local to avoid exporting it from
// pkg/kernel just for this one caller.
type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) take(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.data) {
		return nil, kernel.ErrCorrupt
	}

	out := c.data[c.pos : c.pos+n]
	c.pos += n

	owned := make([]byte, len(out))
	copy(owned, out)

	return owned, nil
}

func (c *cursor) byte() (byte, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

func (c *cursor) boolean() (bool, error) {
	b, err := c.byte()
	if err != nil {
		return false, err
	}

	return b != 0, nil
}

func (c *cursor) u32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) u64() (uint64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(b), nil
}

func (c *cursor) exhausted() bool { return c.pos == len(c.data) }
