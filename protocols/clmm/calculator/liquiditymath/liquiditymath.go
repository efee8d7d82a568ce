package liquiditymath

import (
	"errors"
	"math"

	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/fixedpoint"
	"lukechampine.com/uint128"
)

var (
	ErrLiquidityOverflow  = errors.New("liquidity overflow")
	ErrLiquidityUnderflow = errors.New("liquidity underflow")
	// ErrLiquidityTooHigh is returned when an unsigned amount cannot be
	// represented as a signed delta without losing the sign bit.
	ErrLiquidityTooHigh = errors.New("liquidity amount too high to convert into a signed delta")
)

// AddDelta applies a signed liquidity delta to an unsigned liquidity value.
// It never wraps: a positive delta past 2^128-1 fails with
// ErrLiquidityOverflow and a negative delta below zero fails with
// ErrLiquidityUnderflow.
func AddDelta(liquidity uint128.Uint128, delta fixedpoint.Int128) (uint128.Uint128, error) {
	if delta.IsZero() {
		return liquidity, nil
	}

	magnitude := delta.Abs()
	if delta.Sign() > 0 {
		next := liquidity.AddWrap(magnitude)
		if next.Cmp(liquidity) < 0 {
			return uint128.Zero, ErrLiquidityOverflow
		}
		return next, nil
	}

	if liquidity.Cmp(magnitude) < 0 {
		return uint128.Zero, ErrLiquidityUnderflow
	}
	return liquidity.Sub(magnitude), nil
}

// ToDelta converts an unsigned liquidity amount into a signed delta.
func ToDelta(amount uint128.Uint128, positive bool) (fixedpoint.Int128, error) {
	if amount.Hi > math.MaxInt64 {
		return fixedpoint.Int128{}, ErrLiquidityTooHigh
	}

	delta := fixedpoint.Int128{Lo: amount.Lo, Hi: int64(amount.Hi)}
	if positive {
		return delta, nil
	}
	// amount <= MaxInt128, so negation cannot fail.
	return delta.Neg()
}
