package tickmath

import (
	"errors"

	"lukechampine.com/uint128"
)

const (
	// MIN_TICK_INDEX is the lowest tick whose price 1.0001^tick is representable
	// with a Q64.64 sqrt price.
	MIN_TICK_INDEX int32 = -443636
	// MAX_TICK_INDEX is the highest such tick.
	MAX_TICK_INDEX int32 = 443636
)

var (
	ErrTickOutOfBounds      = errors.New("tick out of bounds")
	ErrSqrtPriceOutOfBounds = errors.New("sqrt price out of bounds")

	// ratioConstants[i] is 1/sqrt(1.0001^(2^i)) in Q64.64, i = 1..18. Entry 0
	// is the odd-tick starting ratio.
	ratioConstants = [19]uint64{
		18445821805675395072,
		18444899583751176192,
		18443055278223355904,
		18439367220385607680,
		18431993317065453568,
		18417254355718170624,
		18387811781193609216,
		18329067761203558400,
		18212142134806163456,
		17980523815641700352,
		17526086738831433728,
		16651378430235570176,
		15030750278694412288,
		12247334978884435968,
		8131365268886854656,
		3584323654725218816,
		696457651848324352,
		26294789957507116,
		37481735321082,
	}

	// MIN_SQRT_PRICE is the sqrt price at MIN_TICK_INDEX, 4295048016.
	MIN_SQRT_PRICE = sqrtPriceAtTick(MIN_TICK_INDEX)
	// MAX_SQRT_PRICE is the sqrt price at MAX_TICK_INDEX,
	// 79226673521066979257578248091.
	MAX_SQRT_PRICE = sqrtPriceAtTick(MAX_TICK_INDEX)
)

// SqrtPriceFromTickIndex returns sqrt(1.0001^tick) as a Q64.64 value.
func SqrtPriceFromTickIndex(tick int32) (uint128.Uint128, error) {
	if tick < MIN_TICK_INDEX || tick > MAX_TICK_INDEX {
		return uint128.Zero, ErrTickOutOfBounds
	}
	return sqrtPriceAtTick(tick), nil
}

// MustSqrtPriceFromTickIndex is SqrtPriceFromTickIndex for ticks already
// known to be in bounds.
func MustSqrtPriceFromTickIndex(tick int32) uint128.Uint128 {
	p, err := SqrtPriceFromTickIndex(tick)
	if err != nil {
		panic(err)
	}
	return p
}

func sqrtPriceAtTick(tick int32) uint128.Uint128 {
	absTick := uint32(tick)
	if tick < 0 {
		absTick = uint32(-tick)
	}

	// Every intermediate ratio is at most 2^64, so ratio*c stays below 2^128.
	ratio := uint128.New(0, 1)
	if absTick&0x1 != 0 {
		ratio = uint128.From64(ratioConstants[0])
	}
	for i := 1; i < len(ratioConstants); i++ {
		if absTick&(1<<i) != 0 {
			ratio = ratio.Mul64(ratioConstants[i]).Rsh(64)
		}
	}

	if tick > 0 {
		ratio = uint128.Max.Div(ratio)
	}
	return ratio
}

// TickIndexFromSqrtPrice returns the greatest tick such that
// SqrtPriceFromTickIndex(tick) <= sqrtPrice.
func TickIndexFromSqrtPrice(sqrtPrice uint128.Uint128) (int32, error) {
	if sqrtPrice.Cmp(MIN_SQRT_PRICE) < 0 || sqrtPrice.Cmp(MAX_SQRT_PRICE) > 0 {
		return 0, ErrSqrtPriceOutOfBounds
	}

	low, high := MIN_TICK_INDEX, MAX_TICK_INDEX
	tick := MIN_TICK_INDEX
	for low <= high {
		mid := low + (high-low)/2
		if sqrtPriceAtTick(mid).Cmp(sqrtPrice) <= 0 {
			tick = mid
			low = mid + 1
		} else {
			high = mid - 1
		}
	}
	return tick, nil
}
