package arith

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func saturate(value *big.Int) int64 {
	if value.IsInt64() {
		return value.Int64()
	}
	if value.Sign() > 0 {
		return INT64_MAX
	}
	return INT64_MIN
}

func TestCapOpsAgainstBigInt(t *testing.T) {
	interesting := []int64{INT64_MIN, INT64_MIN + 1, -2, -1, 0, 1, 2, INT64_MAX - 1, INT64_MAX}
	rng := rand.New(rand.NewSource(7))
	values := append([]int64{}, interesting...)
	for i := 0; i < 200; i++ {
		values = append(values, rng.Int63()-rng.Int63())
	}

	for _, a := range values {
		for _, b := range values {
			big_a := big.NewInt(a)
			big_b := big.NewInt(b)
			require.Equal(t, saturate(new(big.Int).Add(big_a, big_b)), CapAdd(a, b), "CapAdd(%v, %v)", a, b)
			require.Equal(t, saturate(new(big.Int).Sub(big_a, big_b)), CapSub(a, b), "CapSub(%v, %v)", a, b)
			require.Equal(t, saturate(new(big.Int).Mul(big_a, big_b)), CapProd(a, b), "CapProd(%v, %v)", a, b)
		}
		require.Equal(t, saturate(new(big.Int).Neg(big.NewInt(a))), CapOpp(a), "CapOpp(%v)", a)
	}
}

func TestMSBPosition(t *testing.T) {
	require.Equal(t, -1, MSBPosition32(0))
	require.Equal(t, 0, MSBPosition32(1))
	require.Equal(t, 1, MSBPosition32(2))
	require.Equal(t, 1, MSBPosition32(3))
	require.Equal(t, 2, MSBPosition32(4))
	require.Equal(t, 10, MSBPosition32(1024))
	require.Equal(t, 30, MSBPosition32(1<<31-1))
}

func TestExtendedIntervalInfinities(t *testing.T) {
	full := ToExtended(FullInterval())
	require.Equal(t, int32(1), full.NumNegInfinity)
	require.Equal(t, int32(1), full.NumPosInfinity)
	require.False(t, full.IsEmpty())

	// Summing unbounded intervals keeps them unbounded, plain sentinel
	// arithmetic would saturate.
	sum := Add(full, full)
	require.Equal(t, int32(2), sum.NumNegInfinity)
	require.Equal(t, INT64_MIN, sum.EffectiveMin())
	require.Equal(t, INT64_MAX, sum.EffectiveMax())

	// Delta cancels the infinity counts again.
	delta := Delta(full, sum)
	require.Equal(t, int32(1), delta.NumNegInfinity)
	require.Equal(t, int32(1), delta.NumPosInfinity)
}

func TestExtendedIntervalOps(t *testing.T) {
	a := ToExtended(Interval{Min: 2, Max: 5})
	b := ToExtended(Interval{Min: -1, Max: 3})

	sum := Add(a, b)
	require.Equal(t, int64(1), sum.EffectiveMin())
	require.Equal(t, int64(8), sum.EffectiveMax())

	difference := Sub(a, b)
	require.Equal(t, int64(-1), difference.EffectiveMin())
	require.Equal(t, int64(6), difference.EffectiveMax())

	intersection := Intersect(a, b)
	require.Equal(t, int64(2), intersection.EffectiveMin())
	require.Equal(t, int64(3), intersection.EffectiveMax())
	require.False(t, intersection.IsEmpty())

	empty := Intersect(a, ToExtended(Interval{Min: 6, Max: 9}))
	require.True(t, empty.IsEmpty())

	// from + Delta(from, to) = to on the bounds.
	delta := Delta(a, b)
	require.Equal(t, b.Min, CapAdd(a.Min, delta.Min))
	require.Equal(t, b.Max, CapAdd(a.Max, delta.Max))
}
