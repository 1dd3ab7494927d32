// Package index defines the narrow capability set every Valori index
// implementation — brute force today, HNSW/IVF/PQ as optional pluggable
// variants tomorrow — must satisfy, per spec.md §4.5/§9's "not runtime
// polymorphism over a surprising trait object" design note: a concrete
// kernel embeds exactly one chosen Index at construction, selected by
// scheme tag, never swapped at runtime.
//
// Index implementations never hold references into kernel pools; they are
// handed a Source for the duration of a call and must not retain it.
package index

import (
	"github.com/valori-dev/valori/pkg/fxp"
	"github.com/valori-dev/valori/pkg/vecmath"
)

// Entry is the read-only view of one record slot an index scans over.
type Entry struct {
	ID     uint32
	Vector vecmath.Vector
	Tag    uint64
	HasTag bool
	Live   bool // false for empty slots and soft-deleted records
}

// Source lets an index read record pool state without importing the kernel
// package (kernel depends on index, not the reverse). A kernel's record
// pool satisfies this interface structurally.
type Source interface {
	// RecordAt returns the slot at id. ok is false only for a slot index
	// beyond the pool's capacity.
	RecordAt(id uint32) (entry Entry, ok bool)

	// Capacity returns the pool's fixed slot capacity.
	Capacity() uint32
}

// Filter is evaluated once per live candidate record. A nil Filter matches
// everything.
type Filter func(Entry) bool

// Mode selects TagFilter's matching semantics.
type Mode uint8

const (
	// Equal is the canonical, spec-mandated semantics (spec.md §9: "the
	// spec above assumes equality").
	Equal Mode = iota
	// BitmaskAny matches when entry.Tag & f.Tag != 0 — an additive
	// convenience, never substituted for Equal by default.
	BitmaskAny
)

// TagFilter is the concrete filter spec.md §4.5/§6 leaves as
// `Option<TagFilter>`. Entries without a tag never match, under either
// mode.
type TagFilter struct {
	Tag  uint64
	Mode Mode
}

// Filter adapts f into the Filter func type Search expects.
func (f TagFilter) Filter() Filter {
	return func(e Entry) bool {
		if !e.HasTag {
			return false
		}

		switch f.Mode {
		case BitmaskAny:
			return e.Tag&f.Tag != 0
		default:
			return e.Tag == f.Tag
		}
	}
}

// SearchResult is one ranked hit: primary key Score ascending, tie-break ID
// ascending (spec.md §4.5).
type SearchResult struct {
	Score fxp.Scalar
	ID    uint32
}

// Index is the pluggable capability set every index variant implements.
//
// Search must be pure: it reads Source for its duration and never mutates
// it or the index's own state.
type Index interface {
	// OnInsert notifies the index a record was allocated or reused.
	OnInsert(id uint32, vector vecmath.Vector, tag uint64, hasTag bool)

	// OnDelete notifies the index a record was soft- or hard-deleted.
	OnDelete(id uint32)

	// Search returns the top-k matches for query, ascending by (score, id),
	// length min(k, number of live+filter-matching records).
	Search(source Source, query vecmath.Vector, k uint32, filter Filter) ([]SearchResult, error)

	// SchemeTag identifies this index's on-disk encoding in the snapshot's
	// index_section (spec.md §4.8). 0 means "no persisted section; always
	// rebuild from records."
	SchemeTag() uint32

	// SnapshotBytes returns this index's opaque, deterministic on-disk
	// representation, or nil if the index has none (forcing a rebuild on
	// restore).
	SnapshotBytes() []byte

	// Restore reconstructs index state from a previously produced
	// SnapshotBytes payload carrying the given scheme tag. If the tag is
	// unrecognized, implementations must return ErrUnrecognizedScheme so
	// the caller can fall back to replaying OnInsert for every live record.
	Restore(schemeTag uint32, data []byte, source Source) error
}
