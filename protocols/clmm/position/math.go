package position

import (
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/bitmath"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/fixedpoint"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/liquiditymath"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/reward"
	"lukechampine.com/uint128"
)

// Forfeits counts accrued amounts that were dropped because liquidity times
// the growth delta did not fit in 64 bits.
type Forfeits struct {
	FeeA    bool
	FeeB    bool
	Rewards [reward.NumRewards]bool
}

// Count returns the number of dropped amounts.
func (f Forfeits) Count() int {
	n := 0
	for _, b := range []bool{f.FeeA, f.FeeB, f.Rewards[0], f.Rewards[1], f.Rewards[2]} {
		if b {
			n++
		}
	}
	return n
}

// owedDelta is liquidity * growthDelta >> 64, or zero when that overflows.
func owedDelta(liquidity uint128.Uint128, growthDelta fixedpoint.Growth) (uint64, bool) {
	delta, err := bitmath.CheckedMulShiftRight(liquidity, growthDelta.Uint128())
	if err != nil {
		return 0, true
	}
	return delta, false
}

// NextModifyLiquidityUpdate settles the fees and rewards earned by the
// current liquidity since the last checkpoint and applies liquidityDelta.
//
// Owed amounts that overflow are forfeited (set to zero) and reported in the
// returned Forfeits, while a liquidity overflow or underflow is an error.
// Owed amounts accumulate with wrapping addition and must be collected before
// they wrap.
func NextModifyLiquidityUpdate(
	p *Position,
	liquidityDelta fixedpoint.Int128,
	feeGrowthInsideA fixedpoint.Growth,
	feeGrowthInsideB fixedpoint.Growth,
	rewardGrowthsInside [reward.NumRewards]fixedpoint.Growth,
) (Update, Forfeits, error) {
	var forfeits Forfeits

	feeDeltaA, lostA := owedDelta(p.Liquidity, feeGrowthInsideA.Sub(p.FeeGrowthCheckpointA))
	feeDeltaB, lostB := owedDelta(p.Liquidity, feeGrowthInsideB.Sub(p.FeeGrowthCheckpointB))
	forfeits.FeeA, forfeits.FeeB = lostA, lostB

	var rewardInfos [reward.NumRewards]RewardInfo
	for i, inside := range rewardGrowthsInside {
		current := p.RewardInfos[i]
		amountDelta, lost := owedDelta(p.Liquidity, inside.Sub(current.GrowthInsideCheckpoint))
		forfeits.Rewards[i] = lost
		rewardInfos[i] = RewardInfo{
			GrowthInsideCheckpoint: inside,
			AmountOwed:             current.AmountOwed + amountDelta,
		}
	}

	liquidity, err := liquiditymath.AddDelta(p.Liquidity, liquidityDelta)
	if err != nil {
		return Update{}, Forfeits{}, err
	}

	return Update{
		Liquidity:            liquidity,
		FeeGrowthCheckpointA: feeGrowthInsideA,
		FeeGrowthCheckpointB: feeGrowthInsideB,
		FeeOwedA:             p.FeeOwedA + feeDeltaA,
		FeeOwedB:             p.FeeOwedB + feeDeltaB,
		RewardInfos:          rewardInfos,
	}, forfeits, nil
}
