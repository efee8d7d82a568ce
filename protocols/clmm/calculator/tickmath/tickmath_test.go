package tickmath

import (
	"crypto/rand"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

// Helper to create a uint128 from a decimal string for tests.
func fromString(s string) uint128.Uint128 {
	n, _ := new(big.Int).SetString(s, 10)
	return uint128.FromBig(n)
}

func TestSqrtPriceFromTickIndex(t *testing.T) {
	t.Run("throws for too low", func(t *testing.T) {
		_, err := SqrtPriceFromTickIndex(MIN_TICK_INDEX - 1)
		assert.ErrorIs(t, err, ErrTickOutOfBounds)
	})

	t.Run("throws for too high", func(t *testing.T) {
		_, err := SqrtPriceFromTickIndex(MAX_TICK_INDEX + 1)
		assert.ErrorIs(t, err, ErrTickOutOfBounds)
	})

	t.Run("tick zero is one", func(t *testing.T) {
		p, err := SqrtPriceFromTickIndex(0)
		require.NoError(t, err)
		assert.True(t, p.Equals(uint128.New(0, 1)))
	})

	t.Run("min tick", func(t *testing.T) {
		p, err := SqrtPriceFromTickIndex(MIN_TICK_INDEX)
		require.NoError(t, err)
		assert.True(t, fromString("4295048016").Equals(p), "got %s", p)
	})

	t.Run("max tick", func(t *testing.T) {
		p, err := SqrtPriceFromTickIndex(MAX_TICK_INDEX)
		require.NoError(t, err)
		assert.True(t, fromString("79226673521066979257578248091").Equals(p), "got %s", p)
	})

	t.Run("is strictly increasing around zero", func(t *testing.T) {
		prev := MustSqrtPriceFromTickIndex(-100)
		for tick := int32(-99); tick <= 100; tick++ {
			cur := MustSqrtPriceFromTickIndex(tick)
			assert.Equal(t, 1, cur.Cmp(prev), "tick %d", tick)
			prev = cur
		}
	})

	t.Run("matches 1.0001^(tick/2) closely", func(t *testing.T) {
		for _, tick := range []int32{-200000, -50000, -1, 1, 64, 50000, 200000} {
			p := MustSqrtPriceFromTickIndex(tick)
			got, _ := new(big.Float).Quo(new(big.Float).SetInt(p.Big()), new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 64))).Float64()
			want := math.Pow(1.0001, float64(tick)/2)
			assert.InEpsilon(t, want, got, 1e-9, "tick %d", tick)
		}
	})
}

func TestTickIndexFromSqrtPrice(t *testing.T) {
	t.Run("throws for too low", func(t *testing.T) {
		_, err := TickIndexFromSqrtPrice(MIN_SQRT_PRICE.Sub64(1))
		assert.ErrorIs(t, err, ErrSqrtPriceOutOfBounds)
	})

	t.Run("throws for too high", func(t *testing.T) {
		_, err := TickIndexFromSqrtPrice(MAX_SQRT_PRICE.Add64(1))
		assert.ErrorIs(t, err, ErrSqrtPriceOutOfBounds)
	})

	t.Run("price of min tick", func(t *testing.T) {
		tick, err := TickIndexFromSqrtPrice(MIN_SQRT_PRICE)
		require.NoError(t, err)
		assert.Equal(t, MIN_TICK_INDEX, tick)
	})

	t.Run("price of max tick", func(t *testing.T) {
		tick, err := TickIndexFromSqrtPrice(MAX_SQRT_PRICE)
		require.NoError(t, err)
		assert.Equal(t, MAX_TICK_INDEX, tick)
	})

	t.Run("price closest to max tick", func(t *testing.T) {
		tick, err := TickIndexFromSqrtPrice(MAX_SQRT_PRICE.Sub64(1))
		require.NoError(t, err)
		assert.Equal(t, MAX_TICK_INDEX-1, tick)
	})

	t.Run("one unit below a tick price rounds down", func(t *testing.T) {
		tick, err := TickIndexFromSqrtPrice(uint128.New(0, 1).Sub64(1))
		require.NoError(t, err)
		assert.Equal(t, int32(-1), tick)
	})
}

func TestTickIndexFromSqrtPrice_Invariant(t *testing.T) {
	span := big.NewInt(int64(MAX_TICK_INDEX-MIN_TICK_INDEX) + 1)
	for i := 0; i < 300; i++ {
		n, err := rand.Int(rand.Reader, span)
		require.NoError(t, err)
		tick := MIN_TICK_INDEX + int32(n.Int64())

		p := MustSqrtPriceFromTickIndex(tick)
		got, err := TickIndexFromSqrtPrice(p)
		require.NoError(t, err)
		assert.Equal(t, tick, got, "round trip of tick %d", tick)

		if tick > MIN_TICK_INDEX {
			below, err := TickIndexFromSqrtPrice(p.Sub64(1))
			require.NoError(t, err)
			assert.Equal(t, tick-1, below, "price just below tick %d", tick)
		}
	}
}
