package tick

import (
	"github.com/normalfinance/normal-v1-stellar-sub001/bitset"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/tickmath"
)

// Array is a fixed block of TICK_ARRAY_SIZE consecutive usable ticks,
// keyed by the index of its first tick.
type Array struct {
	StartTickIndex int32
	Ticks          [TICK_ARRAY_SIZE]Tick

	// initialized mirrors Ticks[i].Initialized for fast searching. It is
	// rebuilt on demand and never persisted.
	initialized bitset.BitSet `bin:"-"`
}

// NewArray returns an empty array, failing if start is not a valid array
// boundary for tickSpacing.
func NewArray(start int32, tickSpacing uint16) (*Array, error) {
	if !IsValidStartTick(start, tickSpacing) {
		return nil, ErrInvalidStartTick
	}
	return &Array{StartTickIndex: start}, nil
}

func (a *Array) index() bitset.BitSet {
	if a.initialized == nil {
		a.initialized = bitset.NewBitSet(TICK_ARRAY_SIZE)
		for i := range a.Ticks {
			if a.Ticks[i].Initialized {
				a.initialized.Set(uint64(i))
			}
		}
	}
	return a.initialized
}

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	c := &Array{StartTickIndex: a.StartTickIndex, Ticks: a.Ticks}
	if a.initialized != nil {
		c.initialized = a.initialized.Clone()
	}
	return c
}

// InitializedCount returns the number of initialized ticks.
func (a *Array) InitializedCount() int {
	return a.index().Count()
}

// IsMin reports whether this is the left-most array.
func (a *Array) IsMin() bool {
	return a.StartTickIndex <= tickmath.MIN_TICK_INDEX
}

// IsMax reports whether this is the right-most array.
func (a *Array) IsMax(tickSpacing uint16) bool {
	return a.StartTickIndex+TicksInArray(tickSpacing) > tickmath.MAX_TICK_INDEX
}

func (a *Array) inBounds(tickIndex int32, tickSpacing uint16) bool {
	return tickIndex >= a.StartTickIndex && tickIndex < a.StartTickIndex+TicksInArray(tickSpacing)
}

// inSearchRange is the array span, shifted one spacing to the left for
// b-to-a searches, which never return the starting tick itself.
func (a *Array) inSearchRange(tickIndex int32, tickSpacing uint16, shifted bool) bool {
	lower := a.StartTickIndex
	upper := a.StartTickIndex + TicksInArray(tickSpacing)
	if shifted {
		lower -= int32(tickSpacing)
		upper -= int32(tickSpacing)
	}
	return tickIndex >= lower && tickIndex < upper
}

// Offset returns the floored position of tickIndex relative to the start of
// the array, in units of tickSpacing. It may fall outside the array.
func (a *Array) Offset(tickIndex int32, tickSpacing uint16) (int32, error) {
	if tickSpacing == 0 {
		return 0, ErrInvalidTickSpacing
	}
	return floorDiv(tickIndex-a.StartTickIndex, int32(tickSpacing)), nil
}

// Tick returns the tick at tickIndex, which must be usable and inside the
// array.
func (a *Array) Tick(tickIndex int32, tickSpacing uint16) (Tick, error) {
	if !a.inBounds(tickIndex, tickSpacing) || !IsUsable(tickIndex, tickSpacing) {
		return Tick{}, ErrTickNotFound
	}
	offset, err := a.Offset(tickIndex, tickSpacing)
	if err != nil {
		return Tick{}, err
	}
	return a.Ticks[offset], nil
}

// UpdateTick overwrites the tick at tickIndex with u.
func (a *Array) UpdateTick(tickIndex int32, tickSpacing uint16, u Update) error {
	if !a.inBounds(tickIndex, tickSpacing) || !IsUsable(tickIndex, tickSpacing) {
		return ErrTickNotFound
	}
	offset, err := a.Offset(tickIndex, tickSpacing)
	if err != nil {
		return err
	}
	a.Ticks[offset].Apply(u)
	a.index().SetTo(uint64(offset), u.Initialized)
	return nil
}

// NextInitializedTickIndex searches this array for the next initialized tick
// from tickIndex: at or below it for a-to-b, strictly above it for b-to-a.
// It returns false when the array holds no such tick.
func (a *Array) NextInitializedTickIndex(tickIndex int32, tickSpacing uint16, aToB bool) (int32, bool, error) {
	if !a.inSearchRange(tickIndex, tickSpacing, !aToB) {
		return 0, false, ErrInvalidTickArraySequence
	}
	offset, err := a.Offset(tickIndex, tickSpacing)
	if err != nil {
		return 0, false, err
	}

	var (
		found uint64
		ok    bool
	)
	if aToB {
		found, ok = a.index().PrevSet(uint64(offset))
	} else {
		found, ok = a.index().NextSet(uint64(offset + 1))
	}
	if !ok {
		return 0, false, nil
	}
	return a.StartTickIndex + int32(found)*int32(tickSpacing), true, nil
}
