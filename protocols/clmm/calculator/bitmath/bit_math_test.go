package bitmath

import (
	"crypto/rand"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

func randUint128(t *testing.T, bitLen uint) uint128.Uint128 {
	t.Helper()
	n, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), bitLen))
	require.NoError(t, err)
	return uint128.FromBig(n)
}

func TestCheckedMulDiv(t *testing.T) {
	testCases := []struct {
		name     string
		n0       uint128.Uint128
		n1       uint128.Uint128
		d        uint128.Uint128
		roundUp  bool
		expected uint128.Uint128
		err      error
	}{
		{"exact division", uint128.From64(100), uint128.From64(50), uint128.From64(25), false, uint128.From64(200), nil},
		{"floors an inexact division", uint128.From64(10), uint128.From64(10), uint128.From64(3), false, uint128.From64(33), nil},
		{"rounds up an inexact division", uint128.From64(10), uint128.From64(10), uint128.From64(3), true, uint128.From64(34), nil},
		{"exact division is not rounded up", uint128.From64(9), uint128.From64(10), uint128.From64(3), true, uint128.From64(30), nil},
		{"wide product that fits after division", uint128.Max, uint128.Max, uint128.Max, false, uint128.Max, nil},
		{"zero denominator", uint128.From64(1), uint128.From64(1), uint128.Zero, false, uint128.Zero, ErrMultiplicationOverflow},
		{"quotient exceeding 128 bits", uint128.Max, uint128.From64(2), uint128.From64(1), false, uint128.Zero, ErrMultiplicationOverflow},
		{"zero numerator", uint128.Zero, uint128.Max, uint128.From64(7), true, uint128.Zero, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := CheckedMulDivRoundUpIf(tc.n0, tc.n1, tc.d, tc.roundUp)
			if tc.err != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.expected.Equals(result), "expected %s, got %s", tc.expected, result)
		})
	}
}

func TestCheckedMulDiv_MatchesReference(t *testing.T) {
	for i := 0; i < 1000; i++ {
		n0, n1 := randUint128(t, 128), randUint128(t, 64)
		d := randUint128(t, 128)
		if d.IsZero() {
			d = uint128.From64(1)
		}

		want := new(big.Int).Mul(n0.Big(), n1.Big())
		rem := new(big.Int)
		want.QuoRem(want, d.Big(), rem)

		got, err := CheckedMulDiv(n0, n1, d)
		if want.BitLen() > 128 {
			assert.ErrorIs(t, err, ErrMultiplicationOverflow)
			continue
		}
		require.NoError(t, err)
		assert.Zero(t, want.Cmp(got.Big()))

		up, err := CheckedMulDivRoundUp(n0, n1, d)
		if rem.Sign() != 0 && want.BitLen() == 128 && uint128.FromBig(new(big.Int).Set(want)).Equals(uint128.Max) {
			assert.ErrorIs(t, err, ErrMultiplicationOverflow)
			continue
		}
		require.NoError(t, err)
		if rem.Sign() != 0 {
			want.Add(want, big.NewInt(1))
		}
		assert.Zero(t, want.Cmp(up.Big()))
	}
}

func TestCheckedMulShiftRight(t *testing.T) {
	t.Run("zero is an annihilator on either side", func(t *testing.T) {
		for i := 0; i < 200; i++ {
			x := randUint128(t, 128)
			r, err := CheckedMulShiftRight(uint128.Zero, x)
			require.NoError(t, err)
			assert.Zero(t, r)

			r, err = CheckedMulShiftRight(x, uint128.Zero)
			require.NoError(t, err)
			assert.Zero(t, r)
		}
	})

	t.Run("multiplying by one in Q64.64 returns the integer", func(t *testing.T) {
		r, err := CheckedMulShiftRight(uint128.From64(12345), Q64)
		require.NoError(t, err)
		assert.Equal(t, uint64(12345), r)
	})

	t.Run("fractional part is dropped unless rounding up", func(t *testing.T) {
		half := uint128.From64(1 << 63)
		r, err := CheckedMulShiftRight(uint128.From64(3), half)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), r)

		r, err = CheckedMulShiftRightRoundUpIf(uint128.From64(3), half, true)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), r)
	})

	t.Run("product wider than 192 bits fails", func(t *testing.T) {
		_, err := CheckedMulShiftRight(uint128.Max, uint128.Max)
		assert.ErrorIs(t, err, ErrMultiplicationShiftRightOverflow)
	})

	t.Run("result wider than 64 bits fails", func(t *testing.T) {
		_, err := CheckedMulShiftRight(uint128.New(0, 1), uint128.New(0, 1))
		assert.ErrorIs(t, err, ErrNumberDownCast)
	})

	t.Run("rounding up past the maximum fails", func(t *testing.T) {
		n0 := uint128.From64(math.MaxUint64)
		n1 := uint128.New(1, 1)

		r, err := CheckedMulShiftRight(n0, n1)
		require.NoError(t, err)
		assert.Equal(t, uint64(math.MaxUint64), r)

		_, err = CheckedMulShiftRightRoundUpIf(n0, n1, true)
		assert.ErrorIs(t, err, ErrMultiplicationOverflow)
	})
}

func TestDivRoundUpIf(t *testing.T) {
	testCases := []struct {
		name     string
		n        uint128.Uint128
		d        uint128.Uint128
		roundUp  bool
		expected uint128.Uint128
		err      error
	}{
		{"floor", uint128.From64(7), uint128.From64(2), false, uint128.From64(3), nil},
		{"ceil", uint128.From64(7), uint128.From64(2), true, uint128.From64(4), nil},
		{"exact ceil", uint128.From64(8), uint128.From64(2), true, uint128.From64(4), nil},
		{"max by one", uint128.Max, uint128.From64(1), true, uint128.Max, nil},
		{"divide by zero", uint128.From64(7), uint128.Zero, true, uint128.Zero, ErrDivideByZero},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := DivRoundUpIf(tc.n, tc.d, tc.roundUp)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.expected.Equals(result), "expected %s, got %s", tc.expected, result)
		})
	}
}
