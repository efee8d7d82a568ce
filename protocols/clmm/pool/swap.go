package pool

import (
	"errors"
	"math"

	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/fixedpoint"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/swapmath"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/tickmath"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/reward"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/tick"
	"lukechampine.com/uint128"
)

var (
	ErrZeroTradableAmount             = errors.New("zero tradable amount")
	ErrInvalidSqrtPriceLimitDirection = errors.New("sqrt price limit is on the wrong side of the current price")
	ErrAmountOutBelowMinimum          = errors.New("amount out below minimum threshold")
	ErrAmountInAboveMaximum           = errors.New("amount in above maximum threshold")
	ErrPartialFillError               = errors.New("exact output swap was only partially filled")
	ErrAmountRemainingOverflow        = errors.New("amount remaining overflow")
	ErrAmountCalcOverflow             = errors.New("amount calculated overflow")
)

// SwapParams describe one swap request.
type SwapParams struct {
	// Amount is the input amount for exact-input swaps and the output amount
	// otherwise.
	Amount uint64
	// OtherAmountThreshold is the minimum output for exact-input swaps and
	// the maximum input otherwise.
	OtherAmountThreshold uint64
	// SqrtPriceLimit bounds the price movement. Zero means no limit.
	SqrtPriceLimit         uint128.Uint128
	AmountSpecifiedIsInput bool
	AToB                   bool
}

// SwapResult is the outcome of a swap, ready to be applied with ApplySwap.
type SwapResult struct {
	AmountA             uint64
	AmountB             uint64
	NextLiquidity       uint128.Uint128
	NextTickIndex       int32
	NextSqrtPrice       uint128.Uint128
	NextFeeGrowthGlobal fixedpoint.Growth
	NextRewardInfos     reward.Infos
	NextProtocolFee     uint64
	Timestamp           uint64
	AToB                bool

	// Steps and TicksCrossed describe the walk.
	Steps           int
	TicksCrossed    int
	RewardForfeited int
}

func (s SwapParams) adjustedSqrtPriceLimit() uint128.Uint128 {
	if !s.SqrtPriceLimit.IsZero() {
		return s.SqrtPriceLimit
	}
	if s.AToB {
		return tickmath.MIN_SQRT_PRICE
	}
	return tickmath.MAX_SQRT_PRICE
}

// Swap walks seq from the current tick in swap direction, executing one
// step per price interval until the amount is used up or the price limit
// is reached. Ticks crossed along the way are updated inside seq; the pool
// itself is left untouched until ApplySwap.
//
// The walk ends at the edge of the arrays in seq. A swap that needs more
// arrays than were supplied fails with tick.ErrTickArraySequenceInvalidIndex.
func (p *Pool) Swap(seq *tick.Sequence, params SwapParams, timestamp uint64) (SwapResult, error) {
	sqrtPriceLimit := params.adjustedSqrtPriceLimit()
	if sqrtPriceLimit.Cmp(tickmath.MIN_SQRT_PRICE) < 0 || sqrtPriceLimit.Cmp(tickmath.MAX_SQRT_PRICE) > 0 {
		return SwapResult{}, tickmath.ErrSqrtPriceOutOfBounds
	}
	if (params.AToB && sqrtPriceLimit.Cmp(p.SqrtPrice) > 0) || (!params.AToB && sqrtPriceLimit.Cmp(p.SqrtPrice) < 0) {
		return SwapResult{}, ErrInvalidSqrtPriceLimitDirection
	}
	if params.Amount == 0 {
		return SwapResult{}, ErrZeroTradableAmount
	}

	rewardInfos, rewardForfeited, err := p.NextRewardInfos(timestamp)
	if err != nil {
		return SwapResult{}, err
	}

	var (
		aToB             = params.AToB
		isInput          = params.AmountSpecifiedIsInput
		amountRemaining  = params.Amount
		amountCalculated uint64
		currSqrtPrice    = p.SqrtPrice
		currTickIndex    = p.TickCurrentIndex
		currLiquidity    = p.Liquidity
		currProtocolFee  uint64
		currArrayIndex   int
		steps, crossed   int
	)
	currFeeGrowthGlobalInput := p.FeeGrowthGlobalB
	if aToB {
		currFeeGrowthGlobalInput = p.FeeGrowthGlobalA
	}

	for amountRemaining > 0 && !sqrtPriceLimit.Equals(currSqrtPrice) {
		nextArrayIndex, nextTickIndex, err := seq.NextInitializedTickIndex(currTickIndex, aToB, currArrayIndex)
		if err != nil {
			return SwapResult{}, err
		}

		nextTickSqrtPrice, err := tickmath.SqrtPriceFromTickIndex(nextTickIndex)
		if err != nil {
			return SwapResult{}, err
		}
		sqrtPriceTarget := nextTickSqrtPrice
		if (aToB && sqrtPriceLimit.Cmp(nextTickSqrtPrice) > 0) || (!aToB && sqrtPriceLimit.Cmp(nextTickSqrtPrice) < 0) {
			sqrtPriceTarget = sqrtPriceLimit
		}

		step, err := swapmath.ComputeSwap(amountRemaining, p.FeeRate, currLiquidity, currSqrtPrice, sqrtPriceTarget, isInput, aToB)
		if err != nil {
			return SwapResult{}, err
		}
		steps++

		if isInput {
			amountRemaining, err = checkedSub(amountRemaining, step.AmountIn, ErrAmountRemainingOverflow)
			if err == nil {
				amountRemaining, err = checkedSub(amountRemaining, step.FeeAmount, ErrAmountRemainingOverflow)
			}
			if err == nil {
				amountCalculated, err = checkedAdd(amountCalculated, step.AmountOut, ErrAmountCalcOverflow)
			}
		} else {
			amountRemaining, err = checkedSub(amountRemaining, step.AmountOut, ErrAmountRemainingOverflow)
			if err == nil {
				amountCalculated, err = checkedAdd(amountCalculated, step.AmountIn, ErrAmountCalcOverflow)
			}
			if err == nil {
				amountCalculated, err = checkedAdd(amountCalculated, step.FeeAmount, ErrAmountCalcOverflow)
			}
		}
		if err != nil {
			return SwapResult{}, err
		}

		currProtocolFee, currFeeGrowthGlobalInput = nextFees(step.FeeAmount, p.ProtocolFeeRate, currLiquidity, currProtocolFee, currFeeGrowthGlobalInput)

		switch {
		case step.NextSqrtPrice.Equals(nextTickSqrtPrice):
			// An index that resolves to no stored tick, such as the clamped
			// protocol bounds, counts as uninitialized.
			nextTick, err := seq.Tick(nextArrayIndex, nextTickIndex)
			if err == nil && nextTick.Initialized {
				feeGrowthGlobalA, feeGrowthGlobalB := p.FeeGrowthGlobalA, currFeeGrowthGlobalInput
				if aToB {
					feeGrowthGlobalA, feeGrowthGlobalB = currFeeGrowthGlobalInput, p.FeeGrowthGlobalB
				}
				update, nextLiquidity, err := tick.CrossLiquidity(nextTick, aToB, currLiquidity, feeGrowthGlobalA, feeGrowthGlobalB, rewardInfos)
				if err != nil {
					return SwapResult{}, err
				}
				currLiquidity = nextLiquidity
				if err := seq.UpdateTick(nextArrayIndex, nextTickIndex, update); err != nil {
					return SwapResult{}, err
				}
				crossed++
			}

			offset, err := seq.TickOffset(nextArrayIndex, nextTickIndex)
			if err != nil {
				return SwapResult{}, err
			}
			currArrayIndex = nextArrayIndex
			if (aToB && offset == 0) || (!aToB && offset == tick.TICK_ARRAY_SIZE-1) {
				currArrayIndex++
			}
			currTickIndex = nextTickIndex
			if aToB {
				currTickIndex--
			}
		case !step.NextSqrtPrice.Equals(currSqrtPrice):
			currTickIndex, err = tickmath.TickIndexFromSqrtPrice(step.NextSqrtPrice)
			if err != nil {
				return SwapResult{}, err
			}
		}
		currSqrtPrice = step.NextSqrtPrice
	}

	if amountRemaining > 0 && !isInput && params.SqrtPriceLimit.IsZero() {
		return SwapResult{}, ErrPartialFillError
	}

	var amountA, amountB uint64
	if aToB == isInput {
		amountA, amountB = params.Amount-amountRemaining, amountCalculated
	} else {
		amountA, amountB = amountCalculated, params.Amount-amountRemaining
	}

	if isInput {
		if (aToB && amountB < params.OtherAmountThreshold) || (!aToB && amountA < params.OtherAmountThreshold) {
			return SwapResult{}, ErrAmountOutBelowMinimum
		}
	} else {
		if (aToB && amountA > params.OtherAmountThreshold) || (!aToB && amountB > params.OtherAmountThreshold) {
			return SwapResult{}, ErrAmountInAboveMaximum
		}
	}

	return SwapResult{
		AmountA:             amountA,
		AmountB:             amountB,
		NextLiquidity:       currLiquidity,
		NextTickIndex:       currTickIndex,
		NextSqrtPrice:       currSqrtPrice,
		NextFeeGrowthGlobal: currFeeGrowthGlobalInput,
		NextRewardInfos:     rewardInfos,
		NextProtocolFee:     currProtocolFee,
		Timestamp:           timestamp,
		AToB:                aToB,
		Steps:               steps,
		TicksCrossed:        crossed,
		RewardForfeited:     rewardForfeited,
	}, nil
}

// ApplySwap writes a swap result into the pool. Fee growth and protocol fees
// accrue on the input side only.
func (p *Pool) ApplySwap(r SwapResult) {
	p.UpdateRewards(r.NextRewardInfos, r.Timestamp)
	p.Liquidity = r.NextLiquidity
	p.TickCurrentIndex = r.NextTickIndex
	p.SqrtPrice = r.NextSqrtPrice
	if r.AToB {
		p.FeeGrowthGlobalA = r.NextFeeGrowthGlobal
		p.ProtocolFeeOwedA += r.NextProtocolFee
	} else {
		p.FeeGrowthGlobalB = r.NextFeeGrowthGlobal
		p.ProtocolFeeOwedB += r.NextProtocolFee
	}
}

// nextFees splits a step's fee between the protocol and liquidity providers.
// The providers' share grows the input-side fee growth by fee / liquidity in
// Q64.64; with no active liquidity it goes nowhere.
func nextFees(feeAmount uint64, protocolFeeRate uint16, liquidity uint128.Uint128, protocolFee uint64, feeGrowthGlobalInput fixedpoint.Growth) (uint64, fixedpoint.Growth) {
	globalFee := feeAmount
	if protocolFeeRate > 0 {
		// the protocol share is at most a quarter of the fee
		delta := uint128.From64(globalFee).Mul64(uint64(protocolFeeRate)).Div64(PROTOCOL_FEE_RATE_MUL_VALUE).Lo
		globalFee -= delta
		protocolFee += delta
	}
	if !liquidity.IsZero() {
		growth := uint128.From64(globalFee).Lsh(64).Div(liquidity)
		feeGrowthGlobalInput = feeGrowthGlobalInput.Add(fixedpoint.GrowthFrom(growth))
	}
	return protocolFee, feeGrowthGlobalInput
}

func checkedAdd(a, b uint64, overflow error) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, overflow
	}
	return a + b, nil
}

func checkedSub(a, b uint64, underflow error) (uint64, error) {
	if b > a {
		return 0, underflow
	}
	return a - b, nil
}
