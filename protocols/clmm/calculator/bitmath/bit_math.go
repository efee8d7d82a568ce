package bitmath

import (
	"errors"
	"math"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"
)

const (
	// Q64Resolution is the number of fractional bits of a Q64.64 value.
	Q64Resolution = 64
)

var (
	// Q64 is 1.0 in Q64.64 representation.
	Q64 = uint128.New(0, 1)

	ErrMultiplicationOverflow           = errors.New("multiplication overflow")
	ErrMultiplicationShiftRightOverflow = errors.New("multiplication with shift right overflow")
	ErrDivideByZero                     = errors.New("divide by zero")
	ErrNumberDownCast                   = errors.New("unable to down cast number")
)

// To256 widens a 128-bit value into a fresh 256-bit value.
func To256(x uint128.Uint128) *uint256.Int {
	return &uint256.Int{x.Lo, x.Hi, 0, 0}
}

// From256 narrows a 256-bit value, failing if it does not fit into 128 bits.
func From256(x *uint256.Int) (uint128.Uint128, error) {
	if x[2] != 0 || x[3] != 0 {
		return uint128.Zero, ErrNumberDownCast
	}
	return uint128.New(x[0], x[1]), nil
}

// CheckedMulDiv returns floor(n0*n1/d). The product is held in 256 bits so
// it never overflows; the quotient must fit into 128 bits.
func CheckedMulDiv(n0, n1, d uint128.Uint128) (uint128.Uint128, error) {
	return CheckedMulDivRoundUpIf(n0, n1, d, false)
}

// CheckedMulDivRoundUp returns ceil(n0*n1/d).
func CheckedMulDivRoundUp(n0, n1, d uint128.Uint128) (uint128.Uint128, error) {
	return CheckedMulDivRoundUpIf(n0, n1, d, true)
}

// CheckedMulDivRoundUpIf computes n0*n1/d and rounds the result up when
// roundUp is set and the division leaves a remainder. A zero denominator is
// reported as ErrMultiplicationOverflow.
func CheckedMulDivRoundUpIf(n0, n1, d uint128.Uint128, roundUp bool) (uint128.Uint128, error) {
	if d.IsZero() {
		return uint128.Zero, ErrMultiplicationOverflow
	}

	product := new(uint256.Int).Mul(To256(n0), To256(n1))
	quotient, remainder := new(uint256.Int), new(uint256.Int)
	quotient.DivMod(product, To256(d), remainder)

	if roundUp && !remainder.IsZero() {
		quotient.AddUint64(quotient, 1)
	}

	result, err := From256(quotient)
	if err != nil {
		return uint128.Zero, ErrMultiplicationOverflow
	}
	return result, nil
}

// CheckedMulShiftRight multiplies an integer amount by a Q64.64 fraction and
// returns the integer part of the product as a uint64.
func CheckedMulShiftRight(n0, n1 uint128.Uint128) (uint64, error) {
	return CheckedMulShiftRightRoundUpIf(n0, n1, false)
}

// CheckedMulShiftRightRoundUpIf returns (n0*n1) >> 64, rounded up when
// roundUp is set and any fractional bit of the product is non-zero.
//
// The product must fit into 192 bits and the shifted result must fit into
// a uint64.
func CheckedMulShiftRightRoundUpIf(n0, n1 uint128.Uint128, roundUp bool) (uint64, error) {
	if n0.IsZero() || n1.IsZero() {
		return 0, nil
	}

	product := new(uint256.Int).Mul(To256(n0), To256(n1))
	if product.BitLen() > 192 {
		return 0, ErrMultiplicationShiftRightOverflow
	}

	fractional := product[0]
	product.Rsh(product, Q64Resolution)
	if !product.IsUint64() {
		return 0, ErrNumberDownCast
	}

	result := product.Uint64()
	if roundUp && fractional > 0 {
		if result == math.MaxUint64 {
			return 0, ErrMultiplicationOverflow
		}
		result++
	}
	return result, nil
}

// DivRoundUp returns ceil(n/d).
func DivRoundUp(n, d uint128.Uint128) (uint128.Uint128, error) {
	return DivRoundUpIf(n, d, true)
}

// DivRoundUpIf returns n/d, rounded up when roundUp is set and the division
// is inexact.
func DivRoundUpIf(n, d uint128.Uint128, roundUp bool) (uint128.Uint128, error) {
	if d.IsZero() {
		return uint128.Zero, ErrDivideByZero
	}

	quotient, remainder := n.QuoRem(d)
	if roundUp && !remainder.IsZero() {
		// quotient < n whenever d > 1, and d == 1 never leaves a remainder.
		quotient = quotient.Add64(1)
	}
	return quotient, nil
}

// DivRoundUpIf256 is the 256-bit variant of DivRoundUpIf used by the sqrt
// price math, whose numerators exceed 128 bits.
func DivRoundUpIf256(n, d *uint256.Int, roundUp bool) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivideByZero
	}

	quotient, remainder := new(uint256.Int), new(uint256.Int)
	quotient.DivMod(n, d, remainder)
	if roundUp && !remainder.IsZero() {
		quotient.AddUint64(quotient, 1)
	}
	return quotient, nil
}
