package sqrtpricemath

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/bitmath"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/tickmath"
	"lukechampine.com/uint128"
)

var (
	ErrTokenMaxExceeded     = errors.New("token amount exceeds maximum")
	ErrTokenMinSubceeded    = errors.New("token amount below minimum")
	ErrSqrtPriceOutOfBounds = errors.New("sqrt price out of bounds")
)

func sorted(a, b uint128.Uint128) (lower, upper uint128.Uint128) {
	if a.Cmp(b) > 0 {
		return b, a
	}
	return a, b
}

// AmountDeltaA returns the amount of token A covering liquidity between two
// sqrt prices: L * (upper - lower) / (upper * lower), in token units.
func AmountDeltaA(sqrtPrice0, sqrtPrice1, liquidity uint128.Uint128, roundUp bool) (uint64, error) {
	lower, upper := sorted(sqrtPrice0, sqrtPrice1)
	diff := upper.Sub(lower)

	numerator := new(uint256.Int).Mul(bitmath.To256(liquidity), bitmath.To256(diff))
	if numerator.BitLen() > 256-bitmath.Q64Resolution {
		return 0, bitmath.ErrMultiplicationOverflow
	}
	numerator.Lsh(numerator, bitmath.Q64Resolution)
	denominator := new(uint256.Int).Mul(bitmath.To256(upper), bitmath.To256(lower))

	quotient, err := bitmath.DivRoundUpIf256(numerator, denominator, roundUp)
	if err != nil {
		return 0, err
	}
	if !quotient.IsUint64() {
		return 0, ErrTokenMaxExceeded
	}
	return quotient.Uint64(), nil
}

// AmountDeltaB returns the amount of token B covering liquidity between two
// sqrt prices: L * (upper - lower), in token units.
func AmountDeltaB(sqrtPrice0, sqrtPrice1, liquidity uint128.Uint128, roundUp bool) (uint64, error) {
	lower, upper := sorted(sqrtPrice0, sqrtPrice1)
	amount, err := bitmath.CheckedMulShiftRightRoundUpIf(liquidity, upper.Sub(lower), roundUp)
	if err != nil {
		return 0, ErrTokenMaxExceeded
	}
	return amount, nil
}

// NextSqrtPrice returns the sqrt price reached after moving amount of the
// specified token through liquidity. Token A moves are rounded up and token
// B moves are rounded down, so the price never moves further than the amount
// pays for.
func NextSqrtPrice(sqrtPrice, liquidity uint128.Uint128, amount uint64, amountSpecifiedIsInput, aToB bool) (uint128.Uint128, error) {
	if amountSpecifiedIsInput == aToB {
		return nextSqrtPriceFromARoundUp(sqrtPrice, liquidity, amount, amountSpecifiedIsInput)
	}
	return nextSqrtPriceFromBRoundDown(sqrtPrice, liquidity, amount, amountSpecifiedIsInput)
}

// nextSqrtPriceFromARoundUp computes L * p / (L +- amount * p).
func nextSqrtPriceFromARoundUp(sqrtPrice, liquidity uint128.Uint128, amount uint64, add bool) (uint128.Uint128, error) {
	if amount == 0 {
		return sqrtPrice, nil
	}

	product := new(uint256.Int).Mul(bitmath.To256(sqrtPrice), uint256.NewInt(amount))
	numerator := new(uint256.Int).Mul(bitmath.To256(liquidity), bitmath.To256(sqrtPrice))
	if numerator.BitLen() > 256-bitmath.Q64Resolution {
		return uint128.Zero, bitmath.ErrMultiplicationOverflow
	}
	numerator.Lsh(numerator, bitmath.Q64Resolution)

	denominator := new(uint256.Int).Lsh(bitmath.To256(liquidity), bitmath.Q64Resolution)
	if add {
		denominator.Add(denominator, product)
	} else {
		if denominator.Cmp(product) <= 0 {
			return uint128.Zero, bitmath.ErrDivideByZero
		}
		denominator.Sub(denominator, product)
	}

	quotient, err := bitmath.DivRoundUpIf256(numerator, denominator, true)
	if err != nil {
		return uint128.Zero, err
	}
	price, err := bitmath.From256(quotient)
	if err != nil {
		return uint128.Zero, err
	}

	if price.Cmp(tickmath.MIN_SQRT_PRICE) < 0 {
		return uint128.Zero, ErrTokenMinSubceeded
	}
	if price.Cmp(tickmath.MAX_SQRT_PRICE) > 0 {
		return uint128.Zero, ErrTokenMaxExceeded
	}
	return price, nil
}

// nextSqrtPriceFromBRoundDown computes p +- amount / L.
func nextSqrtPriceFromBRoundDown(sqrtPrice, liquidity uint128.Uint128, amount uint64, add bool) (uint128.Uint128, error) {
	amountX64 := uint128.New(0, amount)

	// Rounding up the delta when removing B keeps the new price lower.
	delta, err := bitmath.DivRoundUpIf(amountX64, liquidity, !add)
	if err != nil {
		return uint128.Zero, err
	}

	if add {
		next := sqrtPrice.AddWrap(delta)
		if next.Cmp(sqrtPrice) < 0 {
			return uint128.Zero, ErrSqrtPriceOutOfBounds
		}
		return next, nil
	}
	if sqrtPrice.Cmp(delta) < 0 {
		return uint128.Zero, ErrSqrtPriceOutOfBounds
	}
	return sqrtPrice.Sub(delta), nil
}
