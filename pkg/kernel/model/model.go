// Package model is a deliberately naive oracle implementation of the
// same state machine pkg/kernel implements, built from plain slices and
// maps instead of bitmaps, btrees, and fixed-point arithmetic. Tests
// drive both the oracle and the real Kernel with the same command
// sequence and diff their snapshots, the way
// pkg/slotcache/state_model_property_test.go checks its cache against a
// model in the teacher repo.
package model

import "errors"

// ErrCapacityExceeded, ErrNotFound and ErrInvariantViolation mirror the
// kernel package's sentinels closely enough for a property test to
// assert "an error occurred" without needing to import pkg/kernel here
// and risk a dependency cycle with pkg/kernel's own tests.
var (
	ErrCapacityExceeded   = errors.New("model: capacity exceeded")
	ErrNotFound           = errors.New("model: not found")
	ErrInvariantViolation = errors.New("model: invariant violation")
)

type record struct {
	vector  []int32
	tag     uint64
	hasTag  bool
	deleted bool
}

type node struct {
	kind      uint8
	record    uint32
	hasRecord bool
	outEdges  []uint32 // head-first, mirrors Kernel's singly-linked adjacency order
}

type edge struct {
	kind uint8
	from uint32
	to   uint32
}

// Model is the oracle state machine.
type Model struct {
	dim                             int
	capRecords, capNodes, capEdges  uint32
	records                         []*record
	nodes                           []*node
	edges                           []*edge
	metadata                        map[uint32][]byte
}

// New returns an empty Model with the given fixed dimension and
// capacities, matching a kernel.Config.
func New(dim int, capRecords, capNodes, capEdges uint32) *Model {
	return &Model{
		dim:        dim,
		capRecords: capRecords,
		capNodes:   capNodes,
		capEdges:   capEdges,
		records:    make([]*record, capRecords),
		nodes:      make([]*node, capNodes),
		edges:      make([]*edge, capEdges),
		metadata:   make(map[uint32][]byte),
	}
}

func firstNilSlot[T any](slots []T) (uint32, bool) {
	for i, s := range slots {
		var zero T
		if any(s) == any(zero) {
			return uint32(i), true
		}
	}

	return 0, false
}

// InsertRecord allocates the smallest free record slot.
func (m *Model) InsertRecord(vector []int32, tag uint64, hasTag bool) (uint32, error) {
	if len(vector) != m.dim {
		return 0, ErrInvariantViolation
	}

	slot, ok := firstNilSlot(m.records)
	if !ok {
		return 0, ErrCapacityExceeded
	}

	owned := make([]int32, len(vector))
	copy(owned, vector)
	m.records[slot] = &record{vector: owned, tag: tag, hasTag: hasTag}

	return slot, nil
}

// SoftDeleteRecord tombstones id without freeing its slot.
func (m *Model) SoftDeleteRecord(id uint32) error {
	rec, err := m.liveRecord(id)
	if err != nil {
		return err
	}

	rec.deleted = true

	return nil
}

func (m *Model) liveRecord(id uint32) (*record, error) {
	if id >= uint32(len(m.records)) || m.records[id] == nil {
		return nil, ErrNotFound
	}

	if m.records[id].deleted {
		return nil, ErrNotFound
	}

	return m.records[id], nil
}

// recordExists reports whether id's slot is occupied, whether or not the
// record has since been soft-deleted — mirrors pkg/kernel.recordPool.get,
// which a node's record reference is checked against (spec.md §4.7: "every
// node whose record is Some references a live (possibly soft-deleted)
// record").
func (m *Model) recordExists(id uint32) error {
	if id >= uint32(len(m.records)) || m.records[id] == nil {
		return ErrNotFound
	}

	return nil
}

// CreateNode allocates the smallest free node slot.
func (m *Model) CreateNode(kind uint8, recordID uint32, hasRecord bool) (uint32, error) {
	if hasRecord {
		if err := m.recordExists(recordID); err != nil {
			return 0, err
		}
	}

	slot, ok := firstNilSlot(m.nodes)
	if !ok {
		return 0, ErrCapacityExceeded
	}

	m.nodes[slot] = &node{kind: kind, record: recordID, hasRecord: hasRecord}

	return slot, nil
}

// DeleteNode removes a node with no outgoing edges, cascading a hard
// delete of any record it exclusively owns — mirroring
// pkg/kernel.Kernel.applyDeleteNode.
func (m *Model) DeleteNode(id uint32) error {
	n, err := m.liveNode(id)
	if err != nil {
		return err
	}

	if len(n.outEdges) > 0 {
		return ErrInvariantViolation
	}

	m.nodes[id] = nil

	if n.hasRecord && n.record < uint32(len(m.records)) {
		m.records[n.record] = nil
		delete(m.metadata, n.record)
	}

	return nil
}

func (m *Model) liveNode(id uint32) (*node, error) {
	if id >= uint32(len(m.nodes)) || m.nodes[id] == nil {
		return nil, ErrNotFound
	}

	return m.nodes[id], nil
}

// CreateEdge allocates the smallest free edge slot and prepends it to
// from's outgoing adjacency list.
func (m *Model) CreateEdge(kind uint8, from, to uint32) (uint32, error) {
	fromNode, err := m.liveNode(from)
	if err != nil {
		return 0, err
	}

	if _, err := m.liveNode(to); err != nil {
		return 0, err
	}

	slot, ok := firstNilSlot(m.edges)
	if !ok {
		return 0, ErrCapacityExceeded
	}

	m.edges[slot] = &edge{kind: kind, from: from, to: to}
	fromNode.outEdges = append([]uint32{slot}, fromNode.outEdges...)

	return slot, nil
}

// DeleteEdge unlinks id from its source node's adjacency list and frees
// its slot.
func (m *Model) DeleteEdge(id uint32) error {
	if id >= uint32(len(m.edges)) || m.edges[id] == nil {
		return ErrNotFound
	}

	e := m.edges[id]

	fromNode, err := m.liveNode(e.from)
	if err != nil {
		return err
	}

	idx := -1

	for i, oe := range fromNode.outEdges {
		if oe == id {
			idx = i
			break
		}
	}

	if idx == -1 {
		return ErrInvariantViolation
	}

	fromNode.outEdges = append(fromNode.outEdges[:idx], fromNode.outEdges[idx+1:]...)
	m.edges[id] = nil

	return nil
}

// SetMetadata replaces the metadata blob for a record, live or
// soft-deleted — mirrors pkg/kernel.Kernel.applySetMetadata, which only
// checks the slot is occupied.
func (m *Model) SetMetadata(id uint32, value []byte) error {
	if err := m.recordExists(id); err != nil {
		return err
	}

	owned := make([]byte, len(value))
	copy(owned, value)
	m.metadata[id] = owned

	return nil
}

// RecordView, NodeView and EdgeView are the comparable projections a
// Snapshot carries, independent of the Model's and Kernel's differing
// internal representations.
type RecordView struct {
	ID     uint32
	Vector []int32
	Tag    uint64
	HasTag bool
}

type NodeView struct {
	ID        uint32
	Kind      uint8
	Record    uint32
	HasRecord bool
	OutEdges  []uint32
}

type EdgeView struct {
	ID   uint32
	Kind uint8
	From uint32
	To   uint32
}

// Snapshot is the full comparable view of a Model or Kernel's live
// state, ascending by ID within each section — exactly the traversal
// order pkg/kernel's own canonicalization uses.
type Snapshot struct {
	Records  []RecordView
	Nodes    []NodeView
	Edges    []EdgeView
	Metadata map[uint32]string
}

// Snapshot extracts the Model's current live state.
func (m *Model) Snapshot() Snapshot {
	snap := Snapshot{Metadata: make(map[uint32]string)}

	for id, rec := range m.records {
		if rec == nil || rec.deleted {
			continue
		}

		snap.Records = append(snap.Records, RecordView{ID: uint32(id), Vector: rec.vector, Tag: rec.tag, HasTag: rec.hasTag})
	}

	for id, n := range m.nodes {
		if n == nil {
			continue
		}

		edges := make([]uint32, len(n.outEdges))
		copy(edges, n.outEdges)

		snap.Nodes = append(snap.Nodes, NodeView{ID: uint32(id), Kind: n.kind, Record: n.record, HasRecord: n.hasRecord, OutEdges: edges})
	}

	for id, e := range m.edges {
		if e == nil {
			continue
		}

		snap.Edges = append(snap.Edges, EdgeView{ID: uint32(id), Kind: e.kind, From: e.from, To: e.to})
	}

	for id, value := range m.metadata {
		snap.Metadata[id] = string(value)
	}

	return snap
}
