package kernel

import (
	"bytes"
	"encoding/binary"

	"lukechampine.com/blake3"
)

// stateHashMagic tags the canonicalization format version, so a future
// incompatible layout change can never collide with this one's hash.
const stateHashMagic = "VALORI_STATE_V1\x00"

// stateHashFormatVersion is the canonicalization's own format version
// (spec.md §4.7 step 4's `kernel_version: u32`) — distinct from the
// Kernel's mutation-count `version: u64` appended right after it. Bumping
// this is a breaking protocol change.
const stateHashFormatVersion = uint32(1)

const (
	slotEmpty    byte = 0
	slotOccupied byte = 1
)

// StateHash is a BLAKE3-256 digest of a Kernel's entire canonicalized
// state (spec.md §4.7): two kernels hash equal iff every record, node,
// edge and metadata entry — including empty slots, whose position still
// carries meaning — are identical.
type StateHash [32]byte

// StateHash computes the canonical hash of the kernel's current state.
func (k *Kernel) StateHash() StateHash {
	return blake3.Sum256(k.canonicalBytes())
}

// canonicalBytes lays out the kernel's entire state as a single
// deterministic byte stream, following spec.md §4.7's literal steps:
// records (each record's metadata bytes inlined right after its vector,
// per step 1), then nodes, then edges — every pool walked by ascending
// slot index including empty slots (so [A,_] and [_,A] never collide) —
// and finally the format version and kernel version, in that order
// (step 4).
func (k *Kernel) canonicalBytes() []byte {
	var buf bytes.Buffer

	buf.WriteString(stateHashMagic)

	writeU32(&buf, uint32(k.cfg.Dim))
	writeU32(&buf, k.cfg.CapRecords)
	writeU32(&buf, k.cfg.CapNodes)
	writeU32(&buf, k.cfg.CapEdges)
	writeU32(&buf, uint32(k.cfg.IndexKind))

	k.records.iterAscending(func(id RecordID, rec Record, ok bool) {
		if !ok {
			buf.WriteByte(slotEmpty)
			return
		}

		buf.WriteByte(slotOccupied)
		writeBool(&buf, rec.Deleted)
		writeBool(&buf, rec.HasTag)
		writeU64(&buf, rec.Tag)

		for _, s := range rec.Vector {
			writeU32(&buf, uint32(int32(s)))
		}

		value, _ := k.metadata.get(id)
		writeU32(&buf, uint32(len(value)))
		buf.Write(value)
	})

	k.nodes.iterAscending(func(_ NodeID, node GraphNode, ok bool) {
		if !ok {
			buf.WriteByte(slotEmpty)
			return
		}

		buf.WriteByte(slotOccupied)
		buf.WriteByte(node.Kind)
		writeBool(&buf, node.HasRecord)
		writeU32(&buf, uint32(node.Record))
		writeU32(&buf, uint32(node.FirstOutEdge))
	})

	k.edges.iterAscending(func(_ EdgeID, edge GraphEdge, ok bool) {
		if !ok {
			buf.WriteByte(slotEmpty)
			return
		}

		buf.WriteByte(slotOccupied)
		buf.WriteByte(edge.Kind)
		writeU32(&buf, uint32(edge.From))
		writeU32(&buf, uint32(edge.To))
		writeU32(&buf, uint32(edge.NextOut))
	})

	writeU32(&buf, stateHashFormatVersion)
	writeU64(&buf, k.version)

	return buf.Bytes()
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}
