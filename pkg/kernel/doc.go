// Package kernel implements the deterministic, fixed-point record and
// graph state machine at the core of Valori: static slotted pools for
// vector records and graph nodes/edges, a pluggable nearest-neighbor
// index, a canonical BLAKE3 state hash, and a binary snapshot codec.
//
// A Kernel is constructed once with a fixed Config and advanced only
// through Apply/ApplyBatch; every mutation is validated in full before
// any state changes, so a rejected command never leaves partial effects.
package kernel
