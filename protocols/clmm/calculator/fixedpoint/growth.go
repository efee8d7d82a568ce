package fixedpoint

import (
	"math/big"

	"lukechampine.com/uint128"
)

// Growth is a Q64.64 per-unit-of-liquidity accumulator (fee or reward
// growth). All arithmetic on it wraps modulo 2^128: only the difference
// between two snapshots is meaningful, and that difference stays correct
// across a wraparound.
//
// Balances and liquidity are plain uint128.Uint128 values, whose Add and Sub
// never wrap.
type Growth uint128.Uint128

// GrowthFrom converts a raw 128-bit value into a Growth.
func GrowthFrom(v uint128.Uint128) Growth {
	return Growth(v)
}

// Add returns g + d mod 2^128.
func (g Growth) Add(d Growth) Growth {
	return Growth(uint128.Uint128(g).AddWrap(uint128.Uint128(d)))
}

// Sub returns g - d mod 2^128.
func (g Growth) Sub(d Growth) Growth {
	return Growth(uint128.Uint128(g).SubWrap(uint128.Uint128(d)))
}

func (g Growth) Uint128() uint128.Uint128 {
	return uint128.Uint128(g)
}

func (g Growth) IsZero() bool {
	return uint128.Uint128(g).IsZero()
}

func (g Growth) Equals(o Growth) bool {
	return uint128.Uint128(g).Equals(uint128.Uint128(o))
}

func (g Growth) Big() *big.Int {
	return uint128.Uint128(g).Big()
}

func (g Growth) String() string {
	return uint128.Uint128(g).String()
}
