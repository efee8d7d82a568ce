package pool

import (
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/fixedpoint"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/liquiditymath"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/sqrtpricemath"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/tickmath"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/position"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/reward"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/tick"
	"lukechampine.com/uint128"
)

// ModifyLiquidityUpdate is everything a liquidity change writes back.
type ModifyLiquidityUpdate struct {
	PoolLiquidity   uint128.Uint128
	RewardInfos     reward.Infos
	PositionUpdate  position.Update
	TickLowerUpdate tick.Update
	TickUpperUpdate tick.Update

	// Forfeits reports owed amounts dropped on overflow.
	Forfeits        position.Forfeits
	RewardForfeited int
}

// NextLiquidity returns the pool's active liquidity after a position on
// [tickLowerIndex, tickUpperIndex) changes by liquidityDelta. Only an
// in-range position moves the active liquidity.
func (p *Pool) NextLiquidity(tickLowerIndex, tickUpperIndex int32, liquidityDelta fixedpoint.Int128) (uint128.Uint128, error) {
	if p.TickCurrentIndex >= tickLowerIndex && p.TickCurrentIndex < tickUpperIndex {
		return liquiditymath.AddDelta(p.Liquidity, liquidityDelta)
	}
	return p.Liquidity, nil
}

// ModifyLiquidity computes the effect of changing pos by liquidityDelta at
// timestamp without mutating anything. lower and upper are the current
// states of the position's boundary ticks.
//
// A zero delta refreshes the position's owed fees and rewards, which
// requires the position to hold liquidity.
func (p *Pool) ModifyLiquidity(pos *position.Position, lower, upper tick.Tick, liquidityDelta fixedpoint.Int128, timestamp uint64) (ModifyLiquidityUpdate, error) {
	if liquidityDelta.IsZero() && pos.Liquidity.IsZero() {
		return ModifyLiquidityUpdate{}, ErrLiquidityZero
	}

	rewardInfos, rewardForfeited, err := p.NextRewardInfos(timestamp)
	if err != nil {
		return ModifyLiquidityUpdate{}, err
	}
	poolLiquidity, err := p.NextLiquidity(pos.TickLowerIndex, pos.TickUpperIndex, liquidityDelta)
	if err != nil {
		return ModifyLiquidityUpdate{}, err
	}

	lowerUpdate, err := tick.NextModifyLiquidityUpdate(lower, pos.TickLowerIndex, p.TickCurrentIndex,
		p.FeeGrowthGlobalA, p.FeeGrowthGlobalB, rewardInfos, liquidityDelta, false)
	if err != nil {
		return ModifyLiquidityUpdate{}, err
	}
	upperUpdate, err := tick.NextModifyLiquidityUpdate(upper, pos.TickUpperIndex, p.TickCurrentIndex,
		p.FeeGrowthGlobalA, p.FeeGrowthGlobalB, rewardInfos, liquidityDelta, true)
	if err != nil {
		return ModifyLiquidityUpdate{}, err
	}

	// growth inside is measured against the ticks as they were before this
	// change
	feeGrowthInsideA, feeGrowthInsideB := tick.NextFeeGrowthsInside(p.TickCurrentIndex,
		lower, pos.TickLowerIndex, upper, pos.TickUpperIndex, p.FeeGrowthGlobalA, p.FeeGrowthGlobalB)
	rewardGrowthsInside := tick.NextRewardGrowthsInside(p.TickCurrentIndex,
		lower, pos.TickLowerIndex, upper, pos.TickUpperIndex, rewardInfos)

	positionUpdate, forfeits, err := position.NextModifyLiquidityUpdate(pos, liquidityDelta,
		feeGrowthInsideA, feeGrowthInsideB, rewardGrowthsInside)
	if err != nil {
		return ModifyLiquidityUpdate{}, err
	}

	return ModifyLiquidityUpdate{
		PoolLiquidity:   poolLiquidity,
		RewardInfos:     rewardInfos,
		PositionUpdate:  positionUpdate,
		TickLowerUpdate: lowerUpdate,
		TickUpperUpdate: upperUpdate,
		Forfeits:        forfeits,
		RewardForfeited: rewardForfeited,
	}, nil
}

// TokenDeltas converts a liquidity change on [tickLowerIndex,
// tickUpperIndex) into token amounts at the pool's current price. Deposits
// round up and withdrawals round down.
func (p *Pool) TokenDeltas(tickLowerIndex, tickUpperIndex int32, liquidityDelta fixedpoint.Int128) (uint64, uint64, error) {
	if liquidityDelta.IsZero() {
		return 0, 0, ErrLiquidityZero
	}
	liquidity := liquidityDelta.Abs()
	roundUp := liquidityDelta.Sign() > 0

	lowerPrice, err := tickmath.SqrtPriceFromTickIndex(tickLowerIndex)
	if err != nil {
		return 0, 0, err
	}
	upperPrice, err := tickmath.SqrtPriceFromTickIndex(tickUpperIndex)
	if err != nil {
		return 0, 0, err
	}

	var deltaA, deltaB uint64
	switch {
	case p.TickCurrentIndex < tickLowerIndex:
		// price below the range, only token A
		deltaA, err = sqrtpricemath.AmountDeltaA(lowerPrice, upperPrice, liquidity, roundUp)
	case p.TickCurrentIndex < tickUpperIndex:
		deltaA, err = sqrtpricemath.AmountDeltaA(p.SqrtPrice, upperPrice, liquidity, roundUp)
		if err == nil {
			deltaB, err = sqrtpricemath.AmountDeltaB(lowerPrice, p.SqrtPrice, liquidity, roundUp)
		}
	default:
		deltaB, err = sqrtpricemath.AmountDeltaB(lowerPrice, upperPrice, liquidity, roundUp)
	}
	if err != nil {
		return 0, 0, err
	}
	return deltaA, deltaB, nil
}

// IncreaseLiquidityAmounts is TokenDeltas for a deposit of liquidityAmount,
// failing when either amount exceeds its maximum.
func (p *Pool) IncreaseLiquidityAmounts(tickLowerIndex, tickUpperIndex int32, liquidityAmount uint128.Uint128, tokenMaxA, tokenMaxB uint64) (fixedpoint.Int128, uint64, uint64, error) {
	if liquidityAmount.IsZero() {
		return fixedpoint.Int128{}, 0, 0, ErrLiquidityZero
	}
	delta, err := liquiditymath.ToDelta(liquidityAmount, true)
	if err != nil {
		return fixedpoint.Int128{}, 0, 0, err
	}
	a, b, err := p.TokenDeltas(tickLowerIndex, tickUpperIndex, delta)
	if err != nil {
		return fixedpoint.Int128{}, 0, 0, err
	}
	if a > tokenMaxA || b > tokenMaxB {
		return fixedpoint.Int128{}, 0, 0, sqrtpricemath.ErrTokenMaxExceeded
	}
	return delta, a, b, nil
}

// DecreaseLiquidityAmounts is TokenDeltas for a withdrawal of
// liquidityAmount, failing when either amount is below its minimum.
func (p *Pool) DecreaseLiquidityAmounts(tickLowerIndex, tickUpperIndex int32, liquidityAmount uint128.Uint128, tokenMinA, tokenMinB uint64) (fixedpoint.Int128, uint64, uint64, error) {
	if liquidityAmount.IsZero() {
		return fixedpoint.Int128{}, 0, 0, ErrLiquidityZero
	}
	delta, err := liquiditymath.ToDelta(liquidityAmount, false)
	if err != nil {
		return fixedpoint.Int128{}, 0, 0, err
	}
	a, b, err := p.TokenDeltas(tickLowerIndex, tickUpperIndex, delta)
	if err != nil {
		return fixedpoint.Int128{}, 0, 0, err
	}
	if a < tokenMinA || b < tokenMinB {
		return fixedpoint.Int128{}, 0, 0, sqrtpricemath.ErrTokenMinSubceeded
	}
	return delta, a, b, nil
}
