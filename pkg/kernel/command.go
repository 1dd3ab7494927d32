package kernel

import "github.com/valori-dev/valori/pkg/vecmath"

// Command is the closed set of state-mutating operations spec.md §4.2
// allows. Go has no sum type, so Command is an interface implemented only
// by the structs below (the unexported marker method closes the set to
// this package).
type Command interface {
	isCommand()
}

// InsertRecord appends a new vector record at the smallest free slot.
type InsertRecord struct {
	Vector vecmath.Vector
	Tag    uint64
	HasTag bool
}

// SoftDeleteRecord tombstones an existing, live record.
type SoftDeleteRecord struct {
	ID RecordID
}

// CreateNode allocates a new graph node, optionally bound to a record.
type CreateNode struct {
	Kind      uint8
	Record    RecordID
	HasRecord bool
}

// DeleteNode removes a node that has no outgoing edges.
type DeleteNode struct {
	ID NodeID
}

// CreateEdge allocates a new directed edge between two existing nodes.
type CreateEdge struct {
	Kind uint8
	From NodeID
	To   NodeID
}

// DeleteEdge removes an existing edge, unlinking it from its source
// node's adjacency list.
type DeleteEdge struct {
	ID EdgeID
}

// SetMetadata replaces the metadata blob attached to a record.
type SetMetadata struct {
	ID    RecordID
	Value []byte
}

func (InsertRecord) isCommand()     {}
func (SoftDeleteRecord) isCommand() {}
func (CreateNode) isCommand()       {}
func (DeleteNode) isCommand()       {}
func (CreateEdge) isCommand()       {}
func (DeleteEdge) isCommand()       {}
func (SetMetadata) isCommand()      {}
