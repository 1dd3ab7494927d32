package kernel

import "github.com/RoaringBitmap/roaring/v2"

// nodePool and edgePool are the fixed-capacity slotted graph stores of
// spec.md §3/§4.4. Unlike records, nodes and edges have no soft-delete
// tombstone: deleting one frees its slot immediately for reuse by a later
// first-free-slot scan, because the graph carries no externally visible
// "deleted but still referenced" state the way a record tag does.
type nodePool struct {
	capacity uint32
	slots    []GraphNode
	occupied *roaring.Bitmap
}

type edgePool struct {
	capacity uint32
	slots    []GraphEdge
	occupied *roaring.Bitmap
}

func newNodePool(capacity uint32) *nodePool {
	return &nodePool{capacity: capacity, slots: make([]GraphNode, capacity), occupied: roaring.New()}
}

func newEdgePool(capacity uint32) *edgePool {
	return &edgePool{capacity: capacity, slots: make([]GraphEdge, capacity), occupied: roaring.New()}
}

func firstFree(occupied *roaring.Bitmap, capacity uint32) (uint32, bool) {
	for i := uint32(0); i < capacity; i++ {
		if !occupied.Contains(i) {
			return i, true
		}
	}

	return 0, false
}

// createNode allocates the smallest free node slot, optionally bound to a
// record.
func (p *nodePool) createNode(kind uint8, record RecordID, hasRecord bool) (NodeID, error) {
	slot, ok := firstFree(p.occupied, p.capacity)
	if !ok {
		return 0, capacityExceeded("nodes")
	}

	p.slots[slot] = GraphNode{ID: NodeID(slot), Kind: kind, Record: record, HasRecord: hasRecord, FirstOutEdge: NoEdge}
	p.occupied.Add(slot)

	return NodeID(slot), nil
}

// deleteNode frees id's slot. It refuses with ErrInvariantViolation while
// the node still has outgoing edges; Kernel.applyDeleteNode relies on this
// check and does not repeat it.
func (p *nodePool) deleteNode(id NodeID) error {
	node, err := p.get(id)
	if err != nil {
		return err
	}

	if node.FirstOutEdge != NoEdge {
		return invariantViolation("cannot delete node with outgoing edges")
	}

	p.slots[id] = GraphNode{}
	p.occupied.Remove(uint32(id))

	return nil
}

func (p *nodePool) get(id NodeID) (GraphNode, error) {
	if uint32(id) >= p.capacity || !p.occupied.Contains(uint32(id)) {
		return GraphNode{}, notFound(EntityNode, uint32(id))
	}

	return p.slots[id], nil
}

func (p *nodePool) setFirstOutEdge(id NodeID, edge EdgeID) {
	p.slots[id].FirstOutEdge = edge
}

// iterAscending visits every node slot in order, with ok=false for empty
// slots, for canonicalization.
func (p *nodePool) iterAscending(fn func(id NodeID, node GraphNode, ok bool)) {
	for i := uint32(0); i < p.capacity; i++ {
		id := NodeID(i)
		if p.occupied.Contains(i) {
			fn(id, p.slots[id], true)
		} else {
			fn(id, GraphNode{}, false)
		}
	}
}

func (p *nodePool) liveCount() uint32 { return uint32(p.occupied.GetCardinality()) }

func (p *nodePool) Capacity() uint32 { return p.capacity }

// createEdge allocates the smallest free edge slot and splices it onto the
// head of from's outgoing adjacency list — head-insertion means walking the
// list from the head (first_out_edge, then next_out) visits out-edges in
// reverse creation order (spec.md §4.4).
func (p *edgePool) createEdge(kind uint8, from, to NodeID, currentHead EdgeID) (EdgeID, error) {
	slot, ok := firstFree(p.occupied, p.capacity)
	if !ok {
		return 0, capacityExceeded("edges")
	}

	p.slots[slot] = GraphEdge{ID: EdgeID(slot), Kind: kind, From: from, To: to, NextOut: currentHead}
	p.occupied.Add(slot)

	return EdgeID(slot), nil
}

func (p *edgePool) get(id EdgeID) (GraphEdge, error) {
	if uint32(id) >= p.capacity || !p.occupied.Contains(uint32(id)) {
		return GraphEdge{}, notFound(EntityEdge, uint32(id))
	}

	return p.slots[id], nil
}

// free releases id's slot once it has been unlinked from its owning
// node's adjacency list.
func (p *edgePool) free(id EdgeID) {
	p.slots[id] = GraphEdge{}
	p.occupied.Remove(uint32(id))
}

// iterAscending visits every edge slot in order, with ok=false for empty
// slots, for canonicalization.
func (p *edgePool) iterAscending(fn func(id EdgeID, edge GraphEdge, ok bool)) {
	for i := uint32(0); i < p.capacity; i++ {
		id := EdgeID(i)
		if p.occupied.Contains(i) {
			fn(id, p.slots[id], true)
		} else {
			fn(id, GraphEdge{}, false)
		}
	}
}

func (p *edgePool) liveCount() uint32 { return uint32(p.occupied.GetCardinality()) }

func (p *edgePool) Capacity() uint32 { return p.capacity }

// unlinkEdge walks from's singly-linked adjacency list starting at head,
// removing edgeID and returning the (possibly unchanged) new head. It
// returns ErrInvariantViolation if edgeID is not reachable from head,
// which would indicate a corrupted adjacency list.
func unlinkEdge(edges *edgePool, head EdgeID, edgeID EdgeID) (EdgeID, error) {
	if head == edgeID {
		edge, err := edges.get(edgeID)
		if err != nil {
			return head, err
		}

		return edge.NextOut, nil
	}

	prev := head
	for prev != NoEdge {
		prevEdge, err := edges.get(prev)
		if err != nil {
			return head, err
		}

		if prevEdge.NextOut == edgeID {
			target, err := edges.get(edgeID)
			if err != nil {
				return head, err
			}

			edges.slots[prev].NextOut = target.NextOut

			return head, nil
		}

		prev = prevEdge.NextOut
	}

	return head, invariantViolation("edge not reachable from its node's adjacency list")
}
