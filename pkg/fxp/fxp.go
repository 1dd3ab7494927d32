// Package fxp implements the Q16.16 fixed-point scalar substrate.
//
// A Scalar is a signed 32-bit integer interpreted as value/Scale. Every
// operation saturates at the int32 boundary instead of wrapping, uses a
// 64-bit accumulator for intermediates, and is a pure function of its
// inputs: identical on every CPU architecture, independent of compiler
// flags, and never influenced by floating-point rounding.
//
// FromFloat32 and ToFloat32 are boundary conversions only. Nothing that
// feeds the kernel's hashed state may call them; they exist so callers can
// translate real-world measurements into the deterministic domain and back.
package fxp

import "errors"

// Scale is 2^16: Scalar values are integers of the form real*Scale.
const Scale = 1 << 16

// Scalar is a Q16.16 fixed-point number.
type Scalar int32

const (
	maxScalar = Scalar(1<<31 - 1)
	minScalar = Scalar(-1 << 31)
)

// MaxValue and MinValue are the representable real-number bounds.
const (
	MaxValue = float64(maxScalar) / Scale
	MinValue = float64(minScalar) / Scale
)

// ErrOutOfRange is returned by FromFloat32 when the input cannot be
// represented as a Scalar without saturating.
var ErrOutOfRange = errors.New("fxp: value out of range")

// Add computes a+b, saturating at the int32 boundary.
func Add(a, b Scalar) Scalar {
	return saturate(int64(a) + int64(b))
}

// Sub computes a-b, saturating at the int32 boundary.
func Sub(a, b Scalar) Scalar {
	return saturate(int64(a) - int64(b))
}

// Mul computes a*b in Q16.16, saturating at the int32 boundary.
//
// The multiplication itself is performed in a 64-bit accumulator
// ((a*b) >> 16) before the saturating cast, so only the final shift-right
// result can overflow int32.
func Mul(a, b Scalar) Scalar {
	product := int64(a) * int64(b)
	return saturate(product >> 16)
}

// saturate clamps a 64-bit intermediate to the Scalar (int32) range.
func saturate(v int64) Scalar {
	switch {
	case v > int64(maxScalar):
		return maxScalar
	case v < int64(minScalar):
		return minScalar
	default:
		return Scalar(v)
	}
}

// FromFloat32 converts a real number into Q16.16 at the API boundary.
//
// It is not used anywhere in a code path that feeds the kernel's hashed
// state: callers translate measurements to FXP before they ever reach
// apply(), and the conversion itself is not part of any operation the
// kernel replays or hashes.
func FromFloat32(f float32) (Scalar, error) {
	scaled := float64(f) * Scale
	if scaled > float64(maxScalar) || scaled < float64(minScalar) {
		return 0, ErrOutOfRange
	}

	return Scalar(scaled), nil
}

// ToFloat32 converts a Scalar back to a real number at the API boundary.
func (s Scalar) ToFloat32() float32 {
	return float32(s) / Scale
}
