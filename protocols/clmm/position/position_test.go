package position

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/fixedpoint"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/liquiditymath"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/reward"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/tick"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

var (
	testPool  = common.HexToHash("0x01")
	testOwner = common.HexToAddress("0xbeef")
)

// q64 returns v as a Q64.64 growth value.
func q64(v uint64) fixedpoint.Growth {
	return fixedpoint.GrowthFrom(uint128.From64(v).Lsh(64))
}

func TestOpen(t *testing.T) {
	fullLower, fullUpper := tick.FullRangeIndexes(32768)

	testCases := []struct {
		name    string
		spacing uint16
		lower   int32
		upper   int32
		err     error
	}{
		{"usable bounds", 64, -128, 128, nil},
		{"unaligned lower bound", 64, -100, 128, ErrInvalidTickIndex},
		{"unaligned upper bound", 64, -128, 100, ErrInvalidTickIndex},
		{"lower equals upper", 64, 128, 128, ErrInvalidTickIndex},
		{"lower above upper", 64, 128, -128, ErrInvalidTickIndex},
		{"upper out of bounds", 64, 0, 443648, ErrInvalidTickIndex},
		{"full range only pool rejects a narrow range", 32768, -32768, 32768, ErrFullRangeOnlyPool},
		{"full range only pool accepts the full range", 32768, fullLower, fullUpper, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Open(NewID(testPool, 0), testPool, testOwner, tc.spacing, tc.lower, tc.upper)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.lower, p.TickLowerIndex)
			assert.Equal(t, tc.upper, p.TickUpperIndex)
			assert.True(t, p.IsEmpty())
		})
	}
}

func TestNewID(t *testing.T) {
	a := NewID(testPool, 0)
	assert.Equal(t, a, NewID(testPool, 0))
	assert.NotEqual(t, a, NewID(testPool, 1))
	assert.NotEqual(t, a, NewID(common.HexToHash("0x02"), 0))
}

func TestNextModifyLiquidityUpdate(t *testing.T) {
	t.Run("accrues fees and rewards on the old liquidity", func(t *testing.T) {
		p := &Position{
			Liquidity:            uint128.From64(1000),
			FeeGrowthCheckpointA: q64(1),
			FeeGrowthCheckpointB: q64(2),
			FeeOwedA:             5,
		}
		p.RewardInfos[0] = RewardInfo{GrowthInsideCheckpoint: q64(3), AmountOwed: 7}

		rewards := [reward.NumRewards]fixedpoint.Growth{q64(4)}
		u, forfeits, err := NextModifyLiquidityUpdate(p, fixedpoint.Int128From64(500), q64(3), q64(2), rewards)
		require.NoError(t, err)
		assert.Zero(t, forfeits.Count())

		assert.Equal(t, "1500", u.Liquidity.String())
		assert.Equal(t, uint64(5+2000), u.FeeOwedA)
		assert.Equal(t, uint64(0), u.FeeOwedB)
		assert.True(t, u.FeeGrowthCheckpointA.Equals(q64(3)))
		assert.Equal(t, uint64(7+1000), u.RewardInfos[0].AmountOwed)
		assert.True(t, u.RewardInfos[0].GrowthInsideCheckpoint.Equals(q64(4)))
	})

	t.Run("growth delta is taken modulo 2^128", func(t *testing.T) {
		// checkpoint sits just below the wrap point, inside is just past it
		checkpoint := fixedpoint.Growth{}.Sub(q64(1))
		p := &Position{Liquidity: uint128.From64(10), FeeGrowthCheckpointA: checkpoint}

		u, _, err := NextModifyLiquidityUpdate(p, fixedpoint.Int128{}, q64(2), fixedpoint.Growth{}, [reward.NumRewards]fixedpoint.Growth{})
		require.NoError(t, err)
		assert.Equal(t, uint64(30), u.FeeOwedA)
	})

	t.Run("overflowing fee delta is forfeited", func(t *testing.T) {
		p := &Position{Liquidity: uint128.Max, FeeOwedA: 9, FeeOwedB: 1}

		u, forfeits, err := NextModifyLiquidityUpdate(p, fixedpoint.Int128{}, q64(1<<32), q64(0), [reward.NumRewards]fixedpoint.Growth{})
		require.NoError(t, err)
		assert.True(t, forfeits.FeeA)
		assert.False(t, forfeits.FeeB)
		assert.Equal(t, 1, forfeits.Count())
		assert.Equal(t, uint64(9), u.FeeOwedA, "owed amount is unchanged")
		assert.True(t, u.FeeGrowthCheckpointA.Equals(q64(1<<32)), "checkpoint still advances")
	})

	t.Run("overflowing reward delta is forfeited", func(t *testing.T) {
		p := &Position{Liquidity: uint128.Max}
		rewards := [reward.NumRewards]fixedpoint.Growth{0: q64(0), 2: q64(1 << 40)}

		u, forfeits, err := NextModifyLiquidityUpdate(p, fixedpoint.Int128{}, q64(0), q64(0), rewards)
		require.NoError(t, err)
		assert.True(t, forfeits.Rewards[2])
		assert.Zero(t, u.RewardInfos[2].AmountOwed)
	})

	t.Run("liquidity overflow fails hard", func(t *testing.T) {
		p := &Position{Liquidity: uint128.Max}
		_, _, err := NextModifyLiquidityUpdate(p, fixedpoint.Int128From64(1), q64(0), q64(0), [reward.NumRewards]fixedpoint.Growth{})
		assert.ErrorIs(t, err, liquiditymath.ErrLiquidityOverflow)
	})

	t.Run("liquidity underflow fails hard", func(t *testing.T) {
		p := &Position{Liquidity: uint128.From64(3)}
		_, _, err := NextModifyLiquidityUpdate(p, fixedpoint.Int128From64(-4), q64(0), q64(0), [reward.NumRewards]fixedpoint.Growth{})
		assert.ErrorIs(t, err, liquiditymath.ErrLiquidityUnderflow)
	})
}

func TestPosition_Mutators(t *testing.T) {
	p := &Position{}
	p.Apply(Update{
		Liquidity: uint128.From64(1),
		FeeOwedA:  3,
		FeeOwedB:  4,
	})
	assert.False(t, p.IsEmpty())

	p.Apply(Update{FeeOwedA: 3, FeeOwedB: 4})
	assert.False(t, p.IsEmpty(), "owed fees keep the position open")

	p.ResetFeesOwed()
	assert.True(t, p.IsEmpty())

	require.NoError(t, p.UpdateRewardOwed(1, 12))
	assert.False(t, p.IsEmpty())
	assert.ErrorIs(t, p.UpdateRewardOwed(3, 1), ErrInvalidRewardIndex)
}
