package fixedpoint

import (
	"errors"
	"math"
	"math/big"
	"math/bits"

	"lukechampine.com/uint128"
)

var (
	ErrInt128Overflow = errors.New("int128 overflow")

	maxInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// Int128 is a two's complement signed 128-bit integer. The field order
// matches the little-endian wire layout of an i128.
type Int128 struct {
	Lo uint64
	Hi int64
}

var (
	MaxInt128 = Int128{Lo: math.MaxUint64, Hi: math.MaxInt64}
	MinInt128 = Int128{Lo: 0, Hi: math.MinInt64}
)

func Int128From64(v int64) Int128 {
	if v < 0 {
		return Int128{Lo: uint64(v), Hi: -1}
	}
	return Int128{Lo: uint64(v)}
}

// Int128FromBig fails if v is outside the i128 range.
func Int128FromBig(v *big.Int) (Int128, error) {
	if v.Cmp(maxInt128) > 0 || v.Cmp(minInt128) < 0 {
		return Int128{}, ErrInt128Overflow
	}
	if v.Sign() >= 0 {
		u := uint128.FromBig(new(big.Int).Set(v))
		return Int128{Lo: u.Lo, Hi: int64(u.Hi)}, nil
	}
	u := uint128.FromBig(new(big.Int).Neg(v))
	return Int128{Lo: u.Lo, Hi: int64(u.Hi)}.wrappingNeg(), nil
}

func (x Int128) IsZero() bool {
	return x.Lo == 0 && x.Hi == 0
}

func (x Int128) Sign() int {
	switch {
	case x.Hi < 0:
		return -1
	case x.IsZero():
		return 0
	default:
		return 1
	}
}

// Abs returns the magnitude of x. The magnitude of MinInt128 is 2^127, which
// still fits into an unsigned 128-bit value.
func (x Int128) Abs() uint128.Uint128 {
	if x.Hi < 0 {
		n := x.wrappingNeg()
		return uint128.New(n.Lo, uint64(n.Hi))
	}
	return uint128.New(x.Lo, uint64(x.Hi))
}

func (x Int128) wrappingNeg() Int128 {
	lo, borrow := bits.Sub64(0, x.Lo, 0)
	hi := -x.Hi - int64(borrow)
	return Int128{Lo: lo, Hi: hi}
}

// Neg fails only for MinInt128.
func (x Int128) Neg() (Int128, error) {
	if x == MinInt128 {
		return Int128{}, ErrInt128Overflow
	}
	return x.wrappingNeg(), nil
}

// Add returns x + y, failing on signed overflow.
func (x Int128) Add(y Int128) (Int128, error) {
	lo, carry := bits.Add64(x.Lo, y.Lo, 0)
	r := Int128{Lo: lo, Hi: x.Hi + y.Hi + int64(carry)}
	if (x.Hi < 0) == (y.Hi < 0) && (r.Hi < 0) != (x.Hi < 0) {
		return Int128{}, ErrInt128Overflow
	}
	return r, nil
}

// Sub returns x - y, failing on signed overflow.
func (x Int128) Sub(y Int128) (Int128, error) {
	lo, borrow := bits.Sub64(x.Lo, y.Lo, 0)
	r := Int128{Lo: lo, Hi: x.Hi - y.Hi - int64(borrow)}
	if (x.Hi < 0) != (y.Hi < 0) && (r.Hi < 0) != (x.Hi < 0) {
		return Int128{}, ErrInt128Overflow
	}
	return r, nil
}

func (x Int128) Big() *big.Int {
	if x.Hi < 0 {
		return new(big.Int).Neg(x.Abs().Big())
	}
	return uint128.New(x.Lo, uint64(x.Hi)).Big()
}

func (x Int128) String() string {
	return x.Big().String()
}
