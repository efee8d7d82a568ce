package pricemath

import (
	"testing"

	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/tickmath"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

func TestQ64Conversions(t *testing.T) {
	t.Run("one and a half", func(t *testing.T) {
		v := uint128.New(1<<63, 1)
		assert.True(t, decimal.RequireFromString("1.5").Equal(Q64ToDecimal(v, -1)))

		back, err := DecimalToQ64(decimal.RequireFromString("1.5"))
		require.NoError(t, err)
		assert.True(t, v.Equals(back))
	})

	t.Run("negative values are rejected", func(t *testing.T) {
		_, err := DecimalToQ64(decimal.NewFromInt(-1))
		assert.ErrorIs(t, err, ErrInvalidPrice)
	})
}

func TestSqrtPricePrice(t *testing.T) {
	t.Run("sqrt price one is price one with equal decimals", func(t *testing.T) {
		p := SqrtPriceToPrice(uint128.New(0, 1), 6, 6)
		assert.True(t, decimal.NewFromInt(1).Equal(p), "got %s", p)
	})

	t.Run("decimals shift the price", func(t *testing.T) {
		p := SqrtPriceToPrice(uint128.New(0, 2), 9, 6)
		assert.True(t, decimal.NewFromInt(4000).Equal(p), "got %s", p)
	})

	t.Run("round trips within one unit", func(t *testing.T) {
		price := decimal.RequireFromString("123.456")
		s, err := PriceToSqrtPrice(price, 6, 6)
		require.NoError(t, err)
		back := SqrtPriceToPrice(s, 6, 6)
		assert.True(t, back.Sub(price).Abs().LessThan(decimal.RequireFromString("0.000000001")), "got %s", back)
	})

	t.Run("out of range prices fail", func(t *testing.T) {
		_, err := PriceToSqrtPrice(decimal.RequireFromString("1e40"), 6, 6)
		assert.ErrorIs(t, err, tickmath.ErrSqrtPriceOutOfBounds)

		_, err = PriceToSqrtPrice(decimal.Zero, 6, 6)
		assert.ErrorIs(t, err, ErrInvalidPrice)
	})

	t.Run("tick zero has price one", func(t *testing.T) {
		p, err := TickIndexToPrice(0, 8, 8)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(1).Equal(p))
	})
}
