package kernel

import (
	"errors"
	"fmt"
)

// Sentinel error kinds, matched with errors.Is, exactly as spec.md §7
// enumerates them. Concrete errors wrap one of these with context.
var (
	// ErrCapacityExceeded means a pool is full; inputs were left untouched.
	ErrCapacityExceeded = errors.New("kernel: capacity exceeded")

	// ErrNotFound means a reference names a nonexistent or freed entity.
	ErrNotFound = errors.New("kernel: not found")

	// ErrDimMismatch means a vector's length does not equal the kernel's
	// configured dimension.
	ErrDimMismatch = errors.New("kernel: dimension mismatch")

	// ErrValueOutOfRange means a value is outside the Q16.16 safe range at
	// a boundary conversion.
	ErrValueOutOfRange = errors.New("kernel: value out of range")

	// ErrInvariantViolation means the requested mutation would break a
	// documented invariant (e.g. deleting a node with live edges).
	ErrInvariantViolation = errors.New("kernel: invariant violation")

	// ErrCorrupt means snapshot or log framing/checksum validation failed.
	ErrCorrupt = errors.New("kernel: corrupt")

	// ErrVersionMismatch means a snapshot's format_version is unsupported.
	ErrVersionMismatch = errors.New("kernel: version mismatch")

	// ErrHashMismatch means a verified state does not match its claimed
	// hash.
	ErrHashMismatch = errors.New("kernel: hash mismatch")
)

// EntityKind names the entity a NotFoundError references.
type EntityKind string

const (
	EntityRecord EntityKind = "record"
	EntityNode   EntityKind = "node"
	EntityEdge   EntityKind = "edge"
)

// NotFoundError carries the entity kind and id for ErrNotFound.
type NotFoundError struct {
	Kind EntityKind
	ID   uint32
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("kernel: %s %d not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func notFound(kind EntityKind, id uint32) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// CapacityError carries the pool name for ErrCapacityExceeded.
type CapacityError struct {
	Resource string
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("kernel: %s capacity exceeded", e.Resource)
}

func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }

func capacityExceeded(resource string) error {
	return &CapacityError{Resource: resource}
}

// DimMismatchError carries the expected and actual vector lengths.
type DimMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimMismatchError) Error() string {
	return fmt.Sprintf("kernel: expected dimension %d, got %d", e.Expected, e.Actual)
}

func (e *DimMismatchError) Unwrap() error { return ErrDimMismatch }

func dimMismatch(expected, actual int) error {
	return &DimMismatchError{Expected: expected, Actual: actual}
}

// InvariantError carries a human-readable detail for ErrInvariantViolation.
type InvariantError struct {
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("kernel: invariant violation: %s", e.Detail)
}

func (e *InvariantError) Unwrap() error { return ErrInvariantViolation }

func invariantViolation(detail string) error {
	return &InvariantError{Detail: detail}
}
