package kernel

import (
	"iter"

	"github.com/valori-dev/valori/pkg/index"
	"github.com/valori-dev/valori/pkg/vecmath"
)

// Kernel is the whole in-memory state machine of spec.md §3: record pool,
// graph pools, metadata store and pluggable index, advanced only through
// Apply. A Kernel is fixed to its Config for its entire lifetime.
type Kernel struct {
	cfg      Config
	records  *recordPool
	nodes    *nodePool
	edges    *edgePool
	metadata *metadataStore
	idx      index.Index
	version  uint64
}

// Stats summarizes live/dead counts for observability (supplements
// spec.md). Computing it walks the occupied record slots once, so its
// cost grows with the number of stored records.
type Stats struct {
	LiveRecords  uint32
	Tombstones   uint32
	Nodes        uint32
	Edges        uint32
	Version      uint64
}

// New constructs an empty Kernel for cfg.
func New(cfg Config) (*Kernel, error) {
	if cfg.Dim <= 0 {
		return nil, invariantViolation("dim must be positive")
	}

	idx, err := newIndex(cfg.IndexKind)
	if err != nil {
		return nil, err
	}

	return &Kernel{
		cfg:      cfg,
		records:  newRecordPool(cfg.Dim, cfg.CapRecords),
		nodes:    newNodePool(cfg.CapNodes),
		edges:    newEdgePool(cfg.CapEdges),
		metadata: newMetadataStore(),
		idx:      idx,
	}, nil
}

func (k *Kernel) Config() Config   { return k.cfg }
func (k *Kernel) Version() uint64  { return k.version }

func (k *Kernel) Stats() Stats {
	return Stats{
		LiveRecords: k.records.liveCount(),
		Tombstones:  k.records.tombstoneCount(),
		Nodes:       k.nodes.liveCount(),
		Edges:       k.edges.liveCount(),
		Version:     k.version,
	}
}

// Record, Node, Edge and Metadata are read-only accessors.
func (k *Kernel) Record(id RecordID) (Record, error) { return k.records.get(id) }
func (k *Kernel) Node(id NodeID) (GraphNode, error)  { return k.nodes.get(id) }
func (k *Kernel) Edge(id EdgeID) (GraphEdge, error)  { return k.edges.get(id) }
func (k *Kernel) Metadata(id RecordID) ([]byte, bool) { return k.metadata.get(id) }

// RecordCount reports the number of live (non-tombstoned) records
// (spec.md §6's `record_count() -> u32`); equivalent to
// Stats().LiveRecords, exposed on its own since the spec lists it as a
// standalone core accessor.
func (k *Kernel) RecordCount() uint32 { return k.records.liveCount() }

// OutgoingEdges iterates a node's outgoing adjacency list in traversal
// order — head-first, i.e. reverse creation order (spec.md §4.4) —
// implementing spec.md §6's `outgoing_edges(node_id) -> iterator`.
func (k *Kernel) OutgoingEdges(id NodeID) (iter.Seq[GraphEdge], error) {
	node, err := k.nodes.get(id)
	if err != nil {
		return nil, err
	}

	return func(yield func(GraphEdge) bool) {
		for cur := node.FirstOutEdge; cur != NoEdge; {
			edge, err := k.edges.get(cur)
			if err != nil {
				return
			}

			if !yield(edge) {
				return
			}

			cur = edge.NextOut
		}
	}, nil
}

// Search delegates to the embedded index over the kernel's own record
// pool as the index.Source.
func (k *Kernel) Search(query vecmath.Vector, topK uint32, filter index.Filter) ([]index.SearchResult, error) {
	if len(query) != k.cfg.Dim {
		return nil, dimMismatch(k.cfg.Dim, len(query))
	}

	return k.idx.Search(k.records, query, topK, filter)
}

// Apply validates and executes a single command, returning any newly
// allocated IDs. A command either fully applies or leaves the kernel
// unchanged — Apply never mutates before every invariant has been
// checked (spec.md §4.2's "validate, then act" rule).
func (k *Kernel) Apply(cmd Command) (Assignment, error) {
	switch c := cmd.(type) {
	case InsertRecord:
		return k.applyInsertRecord(c)
	case SoftDeleteRecord:
		return Assignment{}, k.applySoftDeleteRecord(c)
	case CreateNode:
		return k.applyCreateNode(c)
	case DeleteNode:
		return Assignment{}, k.applyDeleteNode(c)
	case CreateEdge:
		return k.applyCreateEdge(c)
	case DeleteEdge:
		return Assignment{}, k.applyDeleteEdge(c)
	case SetMetadata:
		return Assignment{}, k.applySetMetadata(c)
	default:
		return Assignment{}, invariantViolation("unknown command type")
	}
}

// ApplyBatch applies commands in order, stopping at the first error. It
// does not roll back prior commands in the batch: atomicity across a
// whole batch is the job of pkg/commit's shadow-validate phase, which
// runs the same batch against a Clone first and only calls ApplyBatch on
// the live kernel once the whole batch is known to succeed.
func (k *Kernel) ApplyBatch(cmds []Command) ([]Assignment, error) {
	out := make([]Assignment, 0, len(cmds))

	for _, cmd := range cmds {
		assignment, err := k.Apply(cmd)
		if err != nil {
			return out, err
		}

		out = append(out, assignment)
	}

	return out, nil
}

func (k *Kernel) applyInsertRecord(c InsertRecord) (Assignment, error) {
	id, err := k.records.insert(c.Vector, c.Tag, c.HasTag)
	if err != nil {
		return Assignment{}, err
	}

	k.idx.OnInsert(uint32(id), c.Vector, c.Tag, c.HasTag)
	k.version++

	return Assignment{RecordID: id, HasRecord: true}, nil
}

func (k *Kernel) applySoftDeleteRecord(c SoftDeleteRecord) error {
	if _, err := k.records.get(c.ID); err != nil {
		return err
	}

	if err := k.records.softDelete(c.ID); err != nil {
		return err
	}

	k.idx.OnDelete(uint32(c.ID))
	k.version++

	return nil
}

func (k *Kernel) applyCreateNode(c CreateNode) (Assignment, error) {
	if c.HasRecord {
		if _, err := k.records.get(c.Record); err != nil {
			return Assignment{}, err
		}
	}

	id, err := k.nodes.createNode(c.Kind, c.Record, c.HasRecord)
	if err != nil {
		return Assignment{}, err
	}

	k.version++

	return Assignment{NodeID: id, HasNode: true}, nil
}

// applyDeleteNode deletes a node that has no outgoing edges. If the node
// exclusively owned a record, that record is hard-deleted as an internal
// cascade of this same command (spec.md §9 Open Questions: hard delete
// is reserved for internal cascade, never a public command, but must
// remain traceable in the log — it rides along on the DeleteNode entry
// that triggered it rather than being logged separately).
func (k *Kernel) applyDeleteNode(c DeleteNode) error {
	node, err := k.nodes.get(c.ID)
	if err != nil {
		return err
	}

	if err := k.nodes.deleteNode(c.ID); err != nil {
		return err
	}

	if node.HasRecord {
		// Idempotent: another node may have already cascaded this same
		// record away (shared ownership is not forbidden by spec.md §3).
		_ = k.records.hardDelete(node.Record)
		k.metadata.delete(node.Record)
		k.idx.OnDelete(uint32(node.Record))
	}

	k.version++

	return nil
}

func (k *Kernel) applyCreateEdge(c CreateEdge) (Assignment, error) {
	fromNode, err := k.nodes.get(c.From)
	if err != nil {
		return Assignment{}, err
	}

	if _, err := k.nodes.get(c.To); err != nil {
		return Assignment{}, err
	}

	id, err := k.edges.createEdge(c.Kind, c.From, c.To, fromNode.FirstOutEdge)
	if err != nil {
		return Assignment{}, err
	}

	k.nodes.setFirstOutEdge(c.From, id)
	k.version++

	return Assignment{EdgeID: id, HasEdge: true}, nil
}

func (k *Kernel) applyDeleteEdge(c DeleteEdge) error {
	edge, err := k.edges.get(c.ID)
	if err != nil {
		return err
	}

	fromNode, err := k.nodes.get(edge.From)
	if err != nil {
		return err
	}

	newHead, err := unlinkEdge(k.edges, fromNode.FirstOutEdge, c.ID)
	if err != nil {
		return err
	}

	k.nodes.setFirstOutEdge(edge.From, newHead)
	k.edges.free(c.ID)
	k.version++

	return nil
}

func (k *Kernel) applySetMetadata(c SetMetadata) error {
	if _, err := k.records.get(c.ID); err != nil {
		return err
	}

	if len(c.Value) > MaxMetadataBytes {
		return invariantViolation("metadata exceeds MaxMetadataBytes")
	}

	k.metadata.set(c.ID, c.Value)
	k.version++

	return nil
}

// Clone deep-copies all pool and metadata state into a fresh Kernel with
// an independently rebuilt index, for pkg/commit's shadow-validate phase:
// a batch is tried against the clone first, and the live kernel is only
// touched once the whole batch is known to succeed.
func (k *Kernel) Clone() *Kernel {
	clone := &Kernel{
		cfg:      k.cfg,
		records:  newRecordPool(k.cfg.Dim, k.cfg.CapRecords),
		nodes:    newNodePool(k.cfg.CapNodes),
		edges:    newEdgePool(k.cfg.CapEdges),
		metadata: newMetadataStore(),
		version:  k.version,
	}

	k.records.iterAscending(func(id RecordID, rec Record, ok bool) {
		if ok {
			clone.records.slots[id] = cloneRecord(rec)
			clone.records.occupied.Add(uint32(id))
		}
	})

	k.nodes.iterAscending(func(id NodeID, node GraphNode, ok bool) {
		if ok {
			clone.nodes.slots[id] = node
			clone.nodes.occupied.Add(uint32(id))
		}
	})

	k.edges.iterAscending(func(id EdgeID, edge GraphEdge, ok bool) {
		if ok {
			clone.edges.slots[id] = edge
			clone.edges.occupied.Add(uint32(id))
		}
	})

	k.metadata.iterAscending(func(id RecordID, value []byte) {
		clone.metadata.set(id, value)
	})

	idx, _ := newIndex(k.cfg.IndexKind)
	rebuildIndex(idx, clone.records)
	clone.idx = idx

	return clone
}

func cloneRecord(rec Record) Record {
	vector := make(vecmath.Vector, len(rec.Vector))
	copy(vector, rec.Vector)

	return Record{ID: rec.ID, Vector: vector, Tag: rec.Tag, HasTag: rec.HasTag, Deleted: rec.Deleted}
}
