// Package vecmath implements the only two distance primitives the kernel's
// index is allowed to use: a deterministic dot product and squared L2
// distance over fixed-dimension Q16.16 vectors.
//
// Both functions sum strictly in ascending index order — never reassociated,
// never vectorized in a way that would change the order of additions — so
// the result is byte-identical regardless of target architecture or
// auto-vectorization. Intermediate sums use a 64-bit accumulator so no
// partial sum overflows before the final saturating cast to fxp.Scalar.
package vecmath

import "github.com/valori-dev/valori/pkg/fxp"

// Vector is an ordered, fixed-dimension sequence of Q16.16 scalars.
//
// All vectors compared by Dot or L2Sq must share the same length; that
// invariant is enforced once, at record-insertion time, by the kernel
// (spec: DimMismatch). Dot and L2Sq assume it already holds and panic on a
// length mismatch rather than returning an error, because by the time a
// vector reaches this package it has already passed kernel validation and a
// mismatch here is a programming error, not user input.
type Vector []fxp.Scalar

// Dot computes sat_i32((sum_i a[i]*b[i]) >> 16) summed in index order.
func Dot(a, b Vector) fxp.Scalar {
	mustSameLen(a, b)

	var acc int64

	for i := range a {
		acc += int64(a[i]) * int64(b[i])
	}

	return saturateShift(acc)
}

// L2Sq computes sat_i32((sum_i (a[i]-b[i])^2) >> 16) summed in index order.
//
// Differences are taken in int64 first so no per-component subtraction can
// overflow int32 before it is squared.
func L2Sq(a, b Vector) fxp.Scalar {
	mustSameLen(a, b)

	var acc int64

	for i := range a {
		diff := int64(a[i]) - int64(b[i])
		acc += diff * diff
	}

	return saturateShift(acc)
}

func saturateShift(acc int64) fxp.Scalar {
	shifted := acc >> 16
	return fxp.Add(fxp.Scalar(clampI64(shifted)), 0)
}

// clampI64 clamps a 64-bit value to the int32 range before the fxp.Scalar
// cast; fxp.Add then performs the same saturation fxp itself guarantees, so
// the two-step clamp is exact even when shifted overflows int32 on its own.
func clampI64(v int64) int64 {
	const maxI32 = int64(1<<31 - 1)
	const minI32 = int64(-1 << 31)

	switch {
	case v > maxI32:
		return maxI32
	case v < minI32:
		return minI32
	default:
		return v
	}
}

func mustSameLen(a, b Vector) {
	if len(a) != len(b) {
		panic("vecmath: vector length mismatch")
	}
}
