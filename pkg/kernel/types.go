package kernel

import "github.com/valori-dev/valori/pkg/vecmath"

// RecordID, NodeID and EdgeID are slot indices: a pool's invariant is that
// an entity's ID equals the slot index it occupies (spec.md §3).
type (
	RecordID uint32
	NodeID   uint32
	EdgeID   uint32
)

// NoNode, NoEdge and NoRecord are the "absent reference" sentinels used in
// place of Option<T> (Go has no sum type for this); NodePool/EdgePool never
// allocate the all-ones slot index, so it is safe as a sentinel.
const (
	NoNode   NodeID   = ^NodeID(0)
	NoEdge   EdgeID   = ^EdgeID(0)
	NoRecord RecordID = ^RecordID(0)
)

// MaxMetadataBytes is the spec.md §4.6 limit on SetMetadata payloads.
const MaxMetadataBytes = 64 * 1024

// Record is one vector slot. Soft-deleted records keep their slot and ID;
// they are excluded from search and hashed as tombstones (spec.md §3).
type Record struct {
	ID      RecordID
	Vector  vecmath.Vector
	Tag     uint64
	HasTag  bool
	Deleted bool
}

// GraphNode is one node slot. Kind is an opaque small integer whose
// semantics live above the kernel; the kernel stores it verbatim.
type GraphNode struct {
	ID           NodeID
	Kind         uint8
	Record       RecordID // meaningful only when HasRecord; stored as given otherwise
	HasRecord    bool
	FirstOutEdge EdgeID // NoEdge if absent
}

// GraphEdge is one directed edge slot.
type GraphEdge struct {
	ID      EdgeID
	Kind    uint8
	From    NodeID
	To      NodeID
	NextOut EdgeID // NoEdge if absent
}

// Config supplies the build-time constants a Kernel instance is fixed to
// for its entire lifetime (spec.md §6: `new(config) -> Kernel`).
type Config struct {
	Dim         int
	CapRecords  uint32
	CapNodes    uint32
	CapEdges    uint32
	IndexKind   IndexKind
}

// IndexKind selects which pluggable Index implementation a Kernel embeds.
// Only BruteForce is implemented by this repository; the type exists so
// external index implementations have a stable scheme-tag switch to extend
// (spec.md §4.5/§9).
type IndexKind uint32

const (
	IndexKindBruteForce IndexKind = 0
)

// Assignment reports any newly allocated IDs from a successful apply.
type Assignment struct {
	RecordID  RecordID
	NodeID    NodeID
	EdgeID    EdgeID
	HasRecord bool
	HasNode   bool
	HasEdge   bool
}
