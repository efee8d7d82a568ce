package tick

import (
	"fmt"

	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/fixedpoint"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/liquiditymath"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/reward"
	"lukechampine.com/uint128"
)

// NextCrossUpdate flips the outside growth trackers of a tick the price is
// crossing: outside becomes global - outside.
func NextCrossUpdate(t Tick, feeGrowthGlobalA, feeGrowthGlobalB fixedpoint.Growth, rewards reward.Infos) Update {
	u := UpdateFrom(t)
	u.FeeGrowthOutsideA = feeGrowthGlobalA.Sub(t.FeeGrowthOutsideA)
	u.FeeGrowthOutsideB = feeGrowthGlobalB.Sub(t.FeeGrowthOutsideB)
	for i, info := range rewards {
		if !info.Initialized() {
			continue
		}
		u.RewardGrowthsOutside[i] = info.GrowthGlobalX64.Sub(t.RewardGrowthsOutside[i])
	}
	return u
}

// NextModifyLiquidityUpdate applies a position's liquidity delta to one of its
// boundary ticks.
//
// A tick initialized for the first time seeds its outside growth as if all
// past growth happened below it: global growth when the current tick is at
// or above it, zero otherwise. A tick left with no gross liquidity becomes
// uninitialized.
func NextModifyLiquidityUpdate(
	t Tick,
	tickIndex int32,
	tickCurrentIndex int32,
	feeGrowthGlobalA fixedpoint.Growth,
	feeGrowthGlobalB fixedpoint.Growth,
	rewards reward.Infos,
	liquidityDelta fixedpoint.Int128,
	isUpperTick bool,
) (Update, error) {
	if liquidityDelta.IsZero() {
		return UpdateFrom(t), nil
	}

	liquidityGross, err := liquiditymath.AddDelta(t.LiquidityGross, liquidityDelta)
	if err != nil {
		return Update{}, err
	}
	if liquidityGross.IsZero() {
		return Update{}, nil
	}

	feeGrowthOutsideA, feeGrowthOutsideB := t.FeeGrowthOutsideA, t.FeeGrowthOutsideB
	rewardGrowthsOutside := t.RewardGrowthsOutside
	if t.LiquidityGross.IsZero() {
		if tickCurrentIndex >= tickIndex {
			feeGrowthOutsideA, feeGrowthOutsideB = feeGrowthGlobalA, feeGrowthGlobalB
			rewardGrowthsOutside = rewards.Growths()
		} else {
			feeGrowthOutsideA, feeGrowthOutsideB = fixedpoint.Growth{}, fixedpoint.Growth{}
			rewardGrowthsOutside = [reward.NumRewards]fixedpoint.Growth{}
		}
	}

	// Crossing upward enters the range at the lower tick and leaves it at
	// the upper tick.
	var liquidityNet fixedpoint.Int128
	if isUpperTick {
		liquidityNet, err = t.LiquidityNet.Sub(liquidityDelta)
	} else {
		liquidityNet, err = t.LiquidityNet.Add(liquidityDelta)
	}
	if err != nil {
		return Update{}, fmt.Errorf("%w: tick %d: %w", ErrLiquidityNetError, tickIndex, err)
	}

	return Update{
		Initialized:          true,
		LiquidityNet:         liquidityNet,
		LiquidityGross:       liquidityGross,
		FeeGrowthOutsideA:    feeGrowthOutsideA,
		FeeGrowthOutsideB:    feeGrowthOutsideB,
		RewardGrowthsOutside: rewardGrowthsOutside,
	}, nil
}

// NextFeeGrowthsInside returns the fee growth accrued strictly inside
// [lowerIndex, upperIndex): global - below - above, all modulo 2^128.
func NextFeeGrowthsInside(
	tickCurrentIndex int32,
	lower Tick,
	lowerIndex int32,
	upper Tick,
	upperIndex int32,
	feeGrowthGlobalA fixedpoint.Growth,
	feeGrowthGlobalB fixedpoint.Growth,
) (fixedpoint.Growth, fixedpoint.Growth) {
	var belowA, belowB fixedpoint.Growth
	switch {
	case !lower.Initialized:
		// all growth is assumed to have happened below an uninitialized tick
		belowA, belowB = feeGrowthGlobalA, feeGrowthGlobalB
	case tickCurrentIndex < lowerIndex:
		belowA = feeGrowthGlobalA.Sub(lower.FeeGrowthOutsideA)
		belowB = feeGrowthGlobalB.Sub(lower.FeeGrowthOutsideB)
	default:
		belowA, belowB = lower.FeeGrowthOutsideA, lower.FeeGrowthOutsideB
	}

	var aboveA, aboveB fixedpoint.Growth
	switch {
	case !upper.Initialized:
	case tickCurrentIndex < upperIndex:
		aboveA, aboveB = upper.FeeGrowthOutsideA, upper.FeeGrowthOutsideB
	default:
		aboveA = feeGrowthGlobalA.Sub(upper.FeeGrowthOutsideA)
		aboveB = feeGrowthGlobalB.Sub(upper.FeeGrowthOutsideB)
	}

	return feeGrowthGlobalA.Sub(belowA).Sub(aboveA), feeGrowthGlobalB.Sub(belowB).Sub(aboveB)
}

// NextRewardGrowthsInside is NextFeeGrowthsInside for every initialized
// reward slot. Uninitialized slots report zero growth.
func NextRewardGrowthsInside(
	tickCurrentIndex int32,
	lower Tick,
	lowerIndex int32,
	upper Tick,
	upperIndex int32,
	rewards reward.Infos,
) [reward.NumRewards]fixedpoint.Growth {
	var inside [reward.NumRewards]fixedpoint.Growth
	for i, info := range rewards {
		if !info.Initialized() {
			continue
		}
		global := info.GrowthGlobalX64

		var below fixedpoint.Growth
		switch {
		case !lower.Initialized:
			below = global
		case tickCurrentIndex < lowerIndex:
			below = global.Sub(lower.RewardGrowthsOutside[i])
		default:
			below = lower.RewardGrowthsOutside[i]
		}

		var above fixedpoint.Growth
		switch {
		case !upper.Initialized:
		case tickCurrentIndex < upperIndex:
			above = upper.RewardGrowthsOutside[i]
		default:
			above = global.Sub(upper.RewardGrowthsOutside[i])
		}

		inside[i] = global.Sub(below).Sub(above)
	}
	return inside
}

// CrossLiquidity returns the active liquidity after crossing t in the swap
// direction, together with the tick's cross update. A failure here means the
// stored ticks are inconsistent.
func CrossLiquidity(
	t Tick,
	aToB bool,
	liquidity uint128.Uint128,
	feeGrowthGlobalA fixedpoint.Growth,
	feeGrowthGlobalB fixedpoint.Growth,
	rewards reward.Infos,
) (Update, uint128.Uint128, error) {
	signedLiquidityNet := t.LiquidityNet
	if aToB {
		neg, err := t.LiquidityNet.Neg()
		if err != nil {
			return Update{}, uint128.Zero, fmt.Errorf("%w: %w", ErrLiquidityNetError, err)
		}
		signedLiquidityNet = neg
	}

	u := NextCrossUpdate(t, feeGrowthGlobalA, feeGrowthGlobalB, rewards)
	next, err := liquiditymath.AddDelta(liquidity, signedLiquidityNet)
	if err != nil {
		return Update{}, uint128.Zero, fmt.Errorf("%w: %w", ErrLiquidityNetError, err)
	}
	return u, next, nil
}
