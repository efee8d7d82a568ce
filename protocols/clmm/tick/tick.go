package tick

import (
	"errors"

	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/fixedpoint"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/tickmath"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/reward"
	"lukechampine.com/uint128"
)

const (
	// TICK_ARRAY_SIZE is the number of ticks grouped into one array.
	TICK_ARRAY_SIZE = 88
	// FULL_RANGE_ONLY_TICK_SPACING_THRESHOLD is the tick spacing from which a
	// pool only accepts full-range positions.
	FULL_RANGE_ONLY_TICK_SPACING_THRESHOLD = 1 << 15
)

var (
	ErrTickNotFound       = errors.New("tick not found")
	ErrInvalidTickSpacing = errors.New("invalid tick spacing")
	// ErrLiquidityNetError signals a broken liquidity_net invariant.
	ErrLiquidityNetError             = errors.New("liquidity net overflow or underflow")
	ErrInvalidStartTick              = errors.New("invalid tick array start index")
	ErrTickArrayNotInitialized       = errors.New("tick array not initialized")
	ErrInvalidTickArraySequence      = errors.New("tick index outside the searchable range of the tick array")
	ErrTickArraySequenceInvalidIndex = errors.New("tick array sequence exhausted")
)

// Tick is the accounting state at one usable tick index.
//
// A tick with zero LiquidityGross is uninitialized, and all of its other
// fields are zero.
type Tick struct {
	Initialized          bool
	LiquidityNet         fixedpoint.Int128
	LiquidityGross       uint128.Uint128
	FeeGrowthOutsideA    fixedpoint.Growth
	FeeGrowthOutsideB    fixedpoint.Growth
	RewardGrowthsOutside [reward.NumRewards]fixedpoint.Growth
}

// Update carries the full replacement state of a tick.
type Update struct {
	Initialized          bool
	LiquidityNet         fixedpoint.Int128
	LiquidityGross       uint128.Uint128
	FeeGrowthOutsideA    fixedpoint.Growth
	FeeGrowthOutsideB    fixedpoint.Growth
	RewardGrowthsOutside [reward.NumRewards]fixedpoint.Growth
}

// UpdateFrom returns an Update that leaves t unchanged.
func UpdateFrom(t Tick) Update {
	return Update(t)
}

// Apply overwrites every mutable field of t.
func (t *Tick) Apply(u Update) {
	*t = Tick(u)
}

// IsOutOfBounds reports whether tickIndex lies outside
// [MIN_TICK_INDEX, MAX_TICK_INDEX].
func IsOutOfBounds(tickIndex int32) bool {
	return tickIndex < tickmath.MIN_TICK_INDEX || tickIndex > tickmath.MAX_TICK_INDEX
}

// IsUsable reports whether positions may reference tickIndex.
func IsUsable(tickIndex int32, tickSpacing uint16) bool {
	if tickSpacing == 0 || IsOutOfBounds(tickIndex) {
		return false
	}
	return tickIndex%int32(tickSpacing) == 0
}

// TicksInArray is the tick index span of one array.
func TicksInArray(tickSpacing uint16) int32 {
	return TICK_ARRAY_SIZE * int32(tickSpacing)
}

// IsValidStartTick reports whether tickIndex may start a tick array. The
// left-most array may start below MIN_TICK_INDEX.
func IsValidStartTick(tickIndex int32, tickSpacing uint16) bool {
	if tickSpacing == 0 {
		return false
	}
	ticksInArray := TicksInArray(tickSpacing)

	if IsOutOfBounds(tickIndex) {
		if tickIndex > tickmath.MIN_TICK_INDEX {
			return false
		}
		minArrayStartIndex := tickmath.MIN_TICK_INDEX - (tickmath.MIN_TICK_INDEX%ticksInArray + ticksInArray)
		return tickIndex == minArrayStartIndex
	}
	return tickIndex%ticksInArray == 0
}

// StartTickIndex returns the start index of the array containing tickIndex,
// shifted by offset arrays.
func StartTickIndex(tickIndex int32, tickSpacing uint16, offset int32) int32 {
	ticksInArray := TicksInArray(tickSpacing)
	start := floorDiv(tickIndex, ticksInArray)
	return (start + offset) * ticksInArray
}

// FullRangeIndexes returns the widest usable range for tickSpacing.
func FullRangeIndexes(tickSpacing uint16) (lower, upper int32) {
	s := int32(tickSpacing)
	return tickmath.MIN_TICK_INDEX / s * s, tickmath.MAX_TICK_INDEX / s * s
}

// IsFullRangeOnly reports whether pools with tickSpacing only accept
// full-range positions.
func IsFullRangeOnly(tickSpacing uint16) bool {
	return tickSpacing >= FULL_RANGE_ONLY_TICK_SPACING_THRESHOLD
}

func floorDiv(a, b int32) int32 {
	d, r := a/b, a%b
	if (r > 0 && b < 0) || (r < 0 && b > 0) {
		d--
	}
	return d
}
