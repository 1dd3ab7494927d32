package fxp_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/valori-dev/valori/pkg/fxp"
)

func TestAdd_Saturates(t *testing.T) {
	require.Equal(t, fxp.Scalar(math.MaxInt32), fxp.Add(math.MaxInt32, 1))
	require.Equal(t, fxp.Scalar(math.MinInt32), fxp.Add(math.MinInt32, -1))
	require.Equal(t, fxp.Scalar(3*fxp.Scale), fxp.Add(fxp.Scalar(1*fxp.Scale), fxp.Scalar(2*fxp.Scale)))
}

func TestSub_Saturates(t *testing.T) {
	require.Equal(t, fxp.Scalar(math.MinInt32), fxp.Sub(math.MinInt32, 1))
	require.Equal(t, fxp.Scalar(math.MaxInt32), fxp.Sub(math.MaxInt32, -1))
}

func TestMul_ExactForSmallValues(t *testing.T) {
	two := fxp.Scalar(2 * fxp.Scale)
	three := fxp.Scalar(3 * fxp.Scale)

	require.Equal(t, fxp.Scalar(6*fxp.Scale), fxp.Mul(two, three))
}

func TestMul_Saturates(t *testing.T) {
	big := fxp.Scalar(math.MaxInt32)

	require.Equal(t, fxp.Scalar(math.MaxInt32), fxp.Mul(big, fxp.Scalar(2*fxp.Scale)))
}

func TestFromFloat32_RoundTrip(t *testing.T) {
	s, err := fxp.FromFloat32(1.5)
	require.NoError(t, err)
	require.InDelta(t, 1.5, s.ToFloat32(), 1e-4)
}

func TestFromFloat32_OutOfRange(t *testing.T) {
	_, err := fxp.FromFloat32(1_000_000)
	require.ErrorIs(t, err, fxp.ErrOutOfRange)
}

func TestMul_DeterministicAcrossOrdering(t *testing.T) {
	// Multiplication must not depend on operand order producing different
	// intermediate rounding; Q16.16 multiply is commutative over int64.
	a := fxp.Scalar(7 * fxp.Scale / 3)
	b := fxp.Scalar(-5 * fxp.Scale / 2)

	require.Equal(t, fxp.Mul(a, b), fxp.Mul(b, a))
}
