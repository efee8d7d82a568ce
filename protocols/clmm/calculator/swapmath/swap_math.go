package swapmath

import (
	"errors"

	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/bitmath"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/sqrtpricemath"
	"lukechampine.com/uint128"
)

const (
	// FEE_RATE_MUL_VALUE is the fee rate denominator: fee rates are expressed
	// in hundredths of a basis point.
	FEE_RATE_MUL_VALUE = 1_000_000
)

// Step is the result of swapping within a single price interval.
type Step struct {
	AmountIn      uint64
	AmountOut     uint64
	NextSqrtPrice uint128.Uint128
	FeeAmount     uint64
}

// ComputeSwap moves the price from sqrtPriceCurrent towards sqrtPriceTarget
// using at most amountRemaining of the specified token. For exact input the
// fee is deducted from the remaining amount before the constant-product step;
// for exact output it is charged on top of the computed input.
func ComputeSwap(
	amountRemaining uint64,
	feeRate uint16,
	liquidity uint128.Uint128,
	sqrtPriceCurrent uint128.Uint128,
	sqrtPriceTarget uint128.Uint128,
	amountSpecifiedIsInput bool,
	aToB bool,
) (Step, error) {
	// A delta that does not fit into a u64 can never be covered by
	// amountRemaining.
	exceedsMax := false
	fixedDelta, err := amountFixedDelta(sqrtPriceCurrent, sqrtPriceTarget, liquidity, amountSpecifiedIsInput, aToB)
	if errors.Is(err, sqrtpricemath.ErrTokenMaxExceeded) {
		exceedsMax, err = true, nil
	}
	if err != nil {
		return Step{}, err
	}

	amountCalc := amountRemaining
	if amountSpecifiedIsInput {
		lessFee, err := bitmath.CheckedMulDiv(
			uint128.From64(amountRemaining),
			uint128.From64(FEE_RATE_MUL_VALUE-uint64(feeRate)),
			uint128.From64(FEE_RATE_MUL_VALUE),
		)
		if err != nil {
			return Step{}, err
		}
		amountCalc = lessFee.Lo
	}

	nextSqrtPrice := sqrtPriceTarget
	if exceedsMax || amountCalc < fixedDelta {
		nextSqrtPrice, err = sqrtpricemath.NextSqrtPrice(sqrtPriceCurrent, liquidity, amountCalc, amountSpecifiedIsInput, aToB)
		if err != nil {
			return Step{}, err
		}
	}
	isMaxSwap := nextSqrtPrice.Equals(sqrtPriceTarget)

	unfixedDelta, err := amountUnfixedDelta(sqrtPriceCurrent, nextSqrtPrice, liquidity, amountSpecifiedIsInput, aToB)
	if err != nil {
		return Step{}, err
	}

	if !isMaxSwap || exceedsMax {
		fixedDelta, err = amountFixedDelta(sqrtPriceCurrent, nextSqrtPrice, liquidity, amountSpecifiedIsInput, aToB)
		if err != nil {
			return Step{}, err
		}
	}

	var amountIn, amountOut uint64
	if amountSpecifiedIsInput {
		amountIn, amountOut = fixedDelta, unfixedDelta
	} else {
		amountIn, amountOut = unfixedDelta, fixedDelta
	}

	// Cap output at the requested amount; rounding can overshoot by one.
	if !amountSpecifiedIsInput && amountOut > amountRemaining {
		amountOut = amountRemaining
	}

	var feeAmount uint64
	if amountSpecifiedIsInput && !isMaxSwap {
		feeAmount = amountRemaining - amountIn
	} else {
		fee, err := bitmath.CheckedMulDivRoundUp(
			uint128.From64(amountIn),
			uint128.From64(uint64(feeRate)),
			uint128.From64(FEE_RATE_MUL_VALUE-uint64(feeRate)),
		)
		if err != nil {
			return Step{}, err
		}
		if fee.Hi != 0 {
			return Step{}, bitmath.ErrNumberDownCast
		}
		feeAmount = fee.Lo
	}

	return Step{
		AmountIn:      amountIn,
		AmountOut:     amountOut,
		NextSqrtPrice: nextSqrtPrice,
		FeeAmount:     feeAmount,
	}, nil
}

// amountFixedDelta is the amount of the specified token needed to move the
// price between the two bounds. Inputs round up, outputs round down.
func amountFixedDelta(current, target, liquidity uint128.Uint128, amountSpecifiedIsInput, aToB bool) (uint64, error) {
	if aToB == amountSpecifiedIsInput {
		return sqrtpricemath.AmountDeltaA(current, target, liquidity, amountSpecifiedIsInput)
	}
	return sqrtpricemath.AmountDeltaB(current, target, liquidity, amountSpecifiedIsInput)
}

// amountUnfixedDelta is the amount of the other token. It rounds in the
// opposite direction to amountFixedDelta.
func amountUnfixedDelta(current, target, liquidity uint128.Uint128, amountSpecifiedIsInput, aToB bool) (uint64, error) {
	if aToB == amountSpecifiedIsInput {
		return sqrtpricemath.AmountDeltaB(current, target, liquidity, !amountSpecifiedIsInput)
	}
	return sqrtpricemath.AmountDeltaA(current, target, liquidity, !amountSpecifiedIsInput)
}
