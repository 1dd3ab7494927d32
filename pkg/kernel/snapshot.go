package kernel

import (
	"bytes"
	"encoding/binary"

	"github.com/valori-dev/valori/pkg/fxp"
	"github.com/valori-dev/valori/pkg/vecmath"
)

// snapshotMagic and snapshotFormatVersion identify the binary snapshot
// layout of spec.md §4.8. A snapshot is a flat, self-describing encoding
// of an entire Kernel: header, three pool sections walked by ascending
// slot index (including empty slots, exactly like StateHash), a metadata
// section, an index section, and a trailer carrying the state hash the
// content must reproduce.
const (
	snapshotMagic          = "VALO"
	snapshotFormatVersion  = uint32(1)
)

// EncodeSnapshot serializes the kernel's entire state to a self-contained
// byte slice. Callers are responsible for writing it durably (see
// internal/atomicfile and pkg/recovery) — EncodeSnapshot itself does no
// I/O.
func (k *Kernel) EncodeSnapshot() []byte {
	var buf bytes.Buffer

	buf.WriteString(snapshotMagic)
	writeU32(&buf, snapshotFormatVersion)
	writeU32(&buf, uint32(k.cfg.Dim))
	writeU32(&buf, k.cfg.CapRecords)
	writeU32(&buf, k.cfg.CapNodes)
	writeU32(&buf, k.cfg.CapEdges)
	writeU32(&buf, uint32(k.cfg.IndexKind))
	writeU64(&buf, k.version)

	k.records.iterAscending(func(_ RecordID, rec Record, ok bool) {
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

	writeU32(&buf, uint32(k.metadata.len()))
	k.metadata.iterAscending(func(id RecordID, value []byte) {
		writeU32(&buf, uint32(id))
		writeU32(&buf, uint32(len(value)))
		buf.Write(value)
	})

	schemeTag := k.idx.SchemeTag()
	idxBytes := k.idx.SnapshotBytes()
	writeU32(&buf, schemeTag)
	writeU32(&buf, uint32(len(idxBytes)))
	buf.Write(idxBytes)

	trailer := k.StateHash()
	buf.Write(trailer[:])

	return buf.Bytes()
}

// DecodeSnapshot reconstructs a Kernel from bytes produced by
// EncodeSnapshot, failing closed: any framing error is ErrCorrupt, an
// unsupported format_version is ErrVersionMismatch, and a trailer that
// does not match the recomputed state hash is ErrHashMismatch — none of
// these ever return a partially-restored Kernel.
func DecodeSnapshot(data []byte) (*Kernel, error) {
	r := &byteReader{data: data}

	magic, err := r.take(len(snapshotMagic))
	if err != nil {
		return nil, err
	}

	if string(magic) != snapshotMagic {
		return nil, ErrCorrupt
	}

	version, err := r.u32()
	if err != nil {
		return nil, err
	}

	if version != snapshotFormatVersion {
		return nil, ErrVersionMismatch
	}

	dim, err := r.u32()
	if err != nil {
		return nil, err
	}

	capRecords, err := r.u32()
	if err != nil {
		return nil, err
	}

	capNodes, err := r.u32()
	if err != nil {
		return nil, err
	}

	capEdges, err := r.u32()
	if err != nil {
		return nil, err
	}

	indexKind, err := r.u32()
	if err != nil {
		return nil, err
	}

	kernelVersion, err := r.u64()
	if err != nil {
		return nil, err
	}

	cfg := Config{Dim: int(dim), CapRecords: capRecords, CapNodes: capNodes, CapEdges: capEdges, IndexKind: IndexKind(indexKind)}

	k, err := New(cfg)
	if err != nil {
		return nil, err
	}

	k.version = kernelVersion

	for i := uint32(0); i < capRecords; i++ {
		tag, err := r.byte()
		if err != nil {
			return nil, err
		}

		if tag == slotEmpty {
			continue
		}

		deleted, err := r.boolean()
		if err != nil {
			return nil, err
		}

		hasTag, err := r.boolean()
		if err != nil {
			return nil, err
		}

		recTag, err := r.u64()
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

		k.records.slots[i] = Record{ID: RecordID(i), Vector: vector, Tag: recTag, HasTag: hasTag, Deleted: deleted}
		k.records.occupied.Add(i)
	}

	for i := uint32(0); i < capNodes; i++ {
		tag, err := r.byte()
		if err != nil {
			return nil, err
		}

		if tag == slotEmpty {
			continue
		}

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

		firstOutEdge, err := r.u32()
		if err != nil {
			return nil, err
		}

		k.nodes.slots[i] = GraphNode{ID: NodeID(i), Kind: kind, Record: RecordID(record), HasRecord: hasRecord, FirstOutEdge: EdgeID(firstOutEdge)}
		k.nodes.occupied.Add(i)
	}

	for i := uint32(0); i < capEdges; i++ {
		tag, err := r.byte()
		if err != nil {
			return nil, err
		}

		if tag == slotEmpty {
			continue
		}

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

		nextOut, err := r.u32()
		if err != nil {
			return nil, err
		}

		k.edges.slots[i] = GraphEdge{ID: EdgeID(i), Kind: kind, From: NodeID(from), To: NodeID(to), NextOut: EdgeID(nextOut)}
		k.edges.occupied.Add(i)
	}

	metaCount, err := r.u32()
	if err != nil {
		return nil, err
	}

	for i := uint32(0); i < metaCount; i++ {
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

		k.metadata.set(RecordID(id), value)
	}

	schemeTag, err := r.u32()
	if err != nil {
		return nil, err
	}

	idxLen, err := r.u32()
	if err != nil {
		return nil, err
	}

	idxBytes, err := r.take(int(idxLen))
	if err != nil {
		return nil, err
	}

	if restoreErr := k.idx.Restore(schemeTag, idxBytes, k.records); restoreErr != nil {
		rebuildIndex(k.idx, k.records)
	}

	trailer, err := r.take(32)
	if err != nil {
		return nil, err
	}

	if !r.exhausted() {
		return nil, ErrCorrupt
	}

	got := k.StateHash()
	if !bytes.Equal(trailer, got[:]) {
		return nil, ErrHashMismatch
	}

	return k, nil
}

// byteReader is a minimal bounds-checked cursor over a snapshot's bytes;
// every read that would run past the end returns ErrCorrupt rather than
// panicking, so a truncated or tampered snapshot always fails closed.
type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, ErrCorrupt
	}

	out := r.data[r.pos : r.pos+n]
	r.pos += n

	return out, nil
}

func (r *byteReader) byte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

func (r *byteReader) boolean() (bool, error) {
	b, err := r.byte()
	if err != nil {
		return false, err
	}

	return b != 0, nil
}

func (r *byteReader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}

func (r *byteReader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(b), nil
}

func (r *byteReader) exhausted() bool { return r.pos == len(r.data) }
