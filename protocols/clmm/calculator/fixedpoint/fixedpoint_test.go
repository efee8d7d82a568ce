package fixedpoint

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

var two128 = new(big.Int).Lsh(big.NewInt(1), 128)

func TestGrowth_WrapsModulo128(t *testing.T) {
	t.Run("adding past the maximum wraps to zero", func(t *testing.T) {
		g := GrowthFrom(uint128.Max).Add(GrowthFrom(uint128.From64(1)))
		assert.True(t, g.IsZero())
	})

	t.Run("subtracting below zero wraps to the maximum", func(t *testing.T) {
		g := GrowthFrom(uint128.Zero).Sub(GrowthFrom(uint128.From64(1)))
		assert.True(t, g.Equals(GrowthFrom(uint128.Max)))
	})

	t.Run("snapshot difference survives a wraparound", func(t *testing.T) {
		for i := 0; i < 500; i++ {
			startBig, err := rand.Int(rand.Reader, two128)
			require.NoError(t, err)
			deltaBig, err := rand.Int(rand.Reader, two128)
			require.NoError(t, err)

			start := GrowthFrom(uint128.FromBig(new(big.Int).Set(startBig)))
			delta := GrowthFrom(uint128.FromBig(new(big.Int).Set(deltaBig)))

			end := start.Add(delta)
			assert.True(t, end.Sub(start).Equals(delta))

			want := new(big.Int).Add(startBig, deltaBig)
			want.Mod(want, two128)
			assert.Zero(t, want.Cmp(end.Big()))
		}
	})
}

func TestInt128(t *testing.T) {
	t.Run("round trips through big.Int", func(t *testing.T) {
		values := []*big.Int{
			big.NewInt(0),
			big.NewInt(-1),
			big.NewInt(42),
			MaxInt128.Big(),
			MinInt128.Big(),
		}
		for _, v := range values {
			x, err := Int128FromBig(v)
			require.NoError(t, err)
			assert.Zero(t, v.Cmp(x.Big()), "value %s", v)
		}
	})

	t.Run("leaves the argument untouched", func(t *testing.T) {
		v := new(big.Int).Lsh(big.NewInt(1), 70)
		x, err := Int128FromBig(v)
		require.NoError(t, err)
		assert.Zero(t, v.Cmp(new(big.Int).Lsh(big.NewInt(1), 70)))
		assert.Zero(t, v.Cmp(x.Big()))
	})

	t.Run("rejects values outside the signed range", func(t *testing.T) {
		_, err := Int128FromBig(new(big.Int).Add(MaxInt128.Big(), big.NewInt(1)))
		assert.ErrorIs(t, err, ErrInt128Overflow)

		_, err = Int128FromBig(new(big.Int).Sub(MinInt128.Big(), big.NewInt(1)))
		assert.ErrorIs(t, err, ErrInt128Overflow)
	})

	t.Run("checked add and sub detect overflow", func(t *testing.T) {
		_, err := MaxInt128.Add(Int128From64(1))
		assert.ErrorIs(t, err, ErrInt128Overflow)

		_, err = MinInt128.Sub(Int128From64(1))
		assert.ErrorIs(t, err, ErrInt128Overflow)

		_, err = MinInt128.Neg()
		assert.ErrorIs(t, err, ErrInt128Overflow)

		r, err := Int128From64(-5).Add(Int128From64(3))
		require.NoError(t, err)
		assert.Equal(t, "-2", r.String())

		r, err = Int128From64(-5).Sub(Int128From64(-7))
		require.NoError(t, err)
		assert.Equal(t, "2", r.String())
	})

	t.Run("abs of min is two to the 127", func(t *testing.T) {
		assert.Zero(t, new(big.Int).Lsh(big.NewInt(1), 127).Cmp(MinInt128.Abs().Big()))
		assert.Equal(t, 1, Int128From64(7).Sign())
		assert.Equal(t, -1, Int128From64(-7).Sign())
		assert.Equal(t, 0, Int128{}.Sign())
	})

	t.Run("matches big.Int arithmetic on random inputs", func(t *testing.T) {
		half := new(big.Int).Lsh(big.NewInt(1), 126)
		for i := 0; i < 500; i++ {
			a, err := rand.Int(rand.Reader, new(big.Int).Lsh(half, 1))
			require.NoError(t, err)
			b, err := rand.Int(rand.Reader, new(big.Int).Lsh(half, 1))
			require.NoError(t, err)
			a.Sub(a, half)
			b.Sub(b, half)

			x, err := Int128FromBig(a)
			require.NoError(t, err)
			y, err := Int128FromBig(b)
			require.NoError(t, err)

			sum, err := x.Add(y)
			require.NoError(t, err)
			assert.Zero(t, new(big.Int).Add(a, b).Cmp(sum.Big()))

			diff, err := x.Sub(y)
			require.NoError(t, err)
			assert.Zero(t, new(big.Int).Sub(a, b).Cmp(diff.Big()))
		}
	})
}
