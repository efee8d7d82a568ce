package pricemath

import (
	"errors"
	"math/big"

	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/tickmath"
	"github.com/shopspring/decimal"
	"lukechampine.com/uint128"
)

var (
	ErrInvalidPrice = errors.New("price must be positive")

	q64  = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 64), 0)
	q128 = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 128), 0)
)

// Q64ToDecimal converts a Q64.64 value into a decimal, rounded to
// decimalPlaces when decimalPlaces >= 0.
func Q64ToDecimal(num uint128.Uint128, decimalPlaces int32) decimal.Decimal {
	out := decimal.NewFromBigInt(num.Big(), 0).Div(q64)
	if decimalPlaces >= 0 {
		return out.Round(decimalPlaces)
	}
	return out
}

// DecimalToQ64 floors num * 2^64.
func DecimalToQ64(num decimal.Decimal) (uint128.Uint128, error) {
	v := num.Mul(q64).Floor().BigInt()
	if v.Sign() < 0 || v.BitLen() > 128 {
		return uint128.Zero, ErrInvalidPrice
	}
	return uint128.FromBig(v), nil
}

// SqrtPriceToPrice returns the price of token A in token B, adjusted for the
// tokens' decimals.
func SqrtPriceToPrice(sqrtPrice uint128.Uint128, decimalsA, decimalsB uint8) decimal.Decimal {
	s := decimal.NewFromBigInt(sqrtPrice.Big(), 0)
	return s.Mul(s).
		Mul(decimal.New(1, int32(decimalsA)-int32(decimalsB))).
		Div(q128)
}

// PriceToSqrtPrice is the inverse of SqrtPriceToPrice, floored, and fails
// for prices outside the representable sqrt price range.
func PriceToSqrtPrice(price decimal.Decimal, decimalsA, decimalsB uint8) (uint128.Uint128, error) {
	if !price.IsPositive() {
		return uint128.Zero, ErrInvalidPrice
	}

	adjusted := price.Div(decimal.New(1, int32(decimalsA)-int32(decimalsB)))
	f, ok := new(big.Float).SetPrec(256).SetString(adjusted.String())
	if !ok {
		return uint128.Zero, ErrInvalidPrice
	}
	f.Sqrt(f)
	f.Mul(f, new(big.Float).SetPrec(256).SetInt(new(big.Int).Lsh(big.NewInt(1), 64)))
	v, _ := f.Int(nil)

	if v.BitLen() > 128 {
		return uint128.Zero, tickmath.ErrSqrtPriceOutOfBounds
	}
	sqrtPrice := uint128.FromBig(v)
	if sqrtPrice.Cmp(tickmath.MIN_SQRT_PRICE) < 0 || sqrtPrice.Cmp(tickmath.MAX_SQRT_PRICE) > 0 {
		return uint128.Zero, tickmath.ErrSqrtPriceOutOfBounds
	}
	return sqrtPrice, nil
}

// TickIndexToPrice returns the decimal-adjusted price at a tick.
func TickIndexToPrice(tick int32, decimalsA, decimalsB uint8) (decimal.Decimal, error) {
	sqrtPrice, err := tickmath.SqrtPriceFromTickIndex(tick)
	if err != nil {
		return decimal.Zero, err
	}
	return SqrtPriceToPrice(sqrtPrice, decimalsA, decimalsB), nil
}
