package kernel

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/valori-dev/valori/pkg/index"
	"github.com/valori-dev/valori/pkg/vecmath"
)

// recordPool is the fixed-capacity slotted record store of spec.md §3/§4.3.
// A RecordID always equals its slot index; occupied marks which slots hold
// a record (live or soft-deleted — hard-deleted slots are freed and leave
// occupied).
type recordPool struct {
	dim      int
	capacity uint32
	slots    []Record
	occupied *roaring.Bitmap // membership: slot holds a Record (deleted or not)
}

func newRecordPool(dim int, capacity uint32) *recordPool {
	return &recordPool{
		dim:      dim,
		capacity: capacity,
		slots:    make([]Record, capacity),
		occupied: roaring.New(),
	}
}

// insert allocates the smallest free slot for vector, failing with
// ErrCapacityExceeded if none remain. Callers validate len(vector)==dim
// before calling; insert re-checks for defense in depth.
func (p *recordPool) insert(vector vecmath.Vector, tag uint64, hasTag bool) (RecordID, error) {
	if len(vector) != p.dim {
		return 0, dimMismatch(p.dim, len(vector))
	}

	slot, ok := p.firstFreeSlot()
	if !ok {
		return 0, capacityExceeded("records")
	}

	owned := make(vecmath.Vector, p.dim)
	copy(owned, vector)

	p.slots[slot] = Record{ID: RecordID(slot), Vector: owned, Tag: tag, HasTag: hasTag}
	p.occupied.Add(slot)

	return RecordID(slot), nil
}

// firstFreeSlot scans ascending slot index for the smallest unoccupied
// slot, per spec.md §3's "first-free-slot scan in ascending slot index"
// lifecycle rule.
func (p *recordPool) firstFreeSlot() (uint32, bool) {
	for i := uint32(0); i < p.capacity; i++ {
		if !p.occupied.Contains(i) {
			return i, true
		}
	}

	return 0, false
}

// softDelete marks id deleted without freeing its slot: the ID is never
// reused (spec.md §4.3).
func (p *recordPool) softDelete(id RecordID) error {
	rec, err := p.mustLive(id)
	if err != nil {
		return err
	}

	rec.Deleted = true
	p.slots[id] = *rec

	return nil
}

// hardDelete frees id's slot so it may be reused. Only used internally by
// graph node cascades (spec.md §9 Open Questions: hard delete is reserved
// for internal cascade, never a public command).
func (p *recordPool) hardDelete(id RecordID) error {
	if _, err := p.get(id); err != nil {
		return err
	}

	p.slots[id] = Record{}
	p.occupied.Remove(uint32(id))

	return nil
}

// get returns the record at id (live or soft-deleted); ErrNotFound if the
// slot is unoccupied or out of range.
func (p *recordPool) get(id RecordID) (Record, error) {
	if uint32(id) >= p.capacity || !p.occupied.Contains(uint32(id)) {
		return Record{}, notFound(EntityRecord, uint32(id))
	}

	return p.slots[id], nil
}

// mustLive returns a pointer-safe copy of a live (non-deleted, occupied)
// record, or ErrNotFound.
func (p *recordPool) mustLive(id RecordID) (*Record, error) {
	rec, err := p.get(id)
	if err != nil {
		return nil, err
	}

	if rec.Deleted {
		return nil, notFound(EntityRecord, uint32(id))
	}

	return &rec, nil
}

// setVector overwrites a record's vector in place. Nothing in this package
// calls it (snapshot restore writes slots directly), and no public command
// reaches it — records are immutable once inserted at the public API
// surface.
func (p *recordPool) setVector(id RecordID, vector vecmath.Vector) {
	p.slots[id].Vector = vector
}

// iterAscending calls fn for every slot index from 0 to capacity-1 in
// order, with ok=false for empty slots — used by canonicalization (state
// hash, snapshot encode), which must see empty slots too (spec.md §4.7
// property 4: [A,_] and [_,A] must hash differently).
func (p *recordPool) iterAscending(fn func(id RecordID, rec Record, ok bool)) {
	for i := uint32(0); i < p.capacity; i++ {
		id := RecordID(i)
		if p.occupied.Contains(i) {
			fn(id, p.slots[id], true)
		} else {
			fn(id, Record{}, false)
		}
	}
}

// liveCount/tombstoneCount power Kernel.Stats().
func (p *recordPool) liveCount() uint32 {
	var n uint32

	it := p.occupied.Iterator()
	for it.HasNext() {
		if !p.slots[it.Next()].Deleted {
			n++
		}
	}

	return n
}

func (p *recordPool) tombstoneCount() uint32 {
	return uint32(p.occupied.GetCardinality()) - p.liveCount()
}

// RecordAt and Capacity implement index.Source.
func (p *recordPool) RecordAt(id uint32) (index.Entry, bool) {
	if id >= p.capacity {
		return index.Entry{}, false
	}

	if !p.occupied.Contains(id) {
		return index.Entry{}, true
	}

	rec := p.slots[id]

	return index.Entry{
		ID:     uint32(rec.ID),
		Vector: rec.Vector,
		Tag:    rec.Tag,
		HasTag: rec.HasTag,
		Live:   !rec.Deleted,
	}, true
}

func (p *recordPool) Capacity() uint32 { return p.capacity }
