package tick

import (
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/tickmath"
)

// MaxSequenceArrays is the most tick arrays a single swap may walk.
const MaxSequenceArrays = 3

// Sequence is the ordered list of adjacent tick arrays a swap walks through,
// in swap direction.
type Sequence struct {
	arrays      []*Array
	tickSpacing uint16
	touched     []bool
}

// NewSequence builds a sequence over one to MaxSequenceArrays arrays.
func NewSequence(tickSpacing uint16, arrays ...*Array) (*Sequence, error) {
	if tickSpacing == 0 {
		return nil, ErrInvalidTickSpacing
	}
	if len(arrays) == 0 || len(arrays) > MaxSequenceArrays {
		return nil, ErrInvalidTickArraySequence
	}
	return &Sequence{
		arrays:      arrays,
		tickSpacing: tickSpacing,
		touched:     make([]bool, len(arrays)),
	}, nil
}

func (s *Sequence) Len() int {
	return len(s.arrays)
}

func (s *Sequence) array(arrayIndex int) (*Array, error) {
	if arrayIndex < 0 || arrayIndex >= len(s.arrays) {
		return nil, ErrTickArraySequenceInvalidIndex
	}
	return s.arrays[arrayIndex], nil
}

// Tick returns the tick at tickIndex in the array at arrayIndex.
func (s *Sequence) Tick(arrayIndex int, tickIndex int32) (Tick, error) {
	a, err := s.array(arrayIndex)
	if err != nil {
		return Tick{}, err
	}
	return a.Tick(tickIndex, s.tickSpacing)
}

// UpdateTick overwrites the tick at tickIndex in the array at arrayIndex.
func (s *Sequence) UpdateTick(arrayIndex int, tickIndex int32, u Update) error {
	a, err := s.array(arrayIndex)
	if err != nil {
		return err
	}
	if err := a.UpdateTick(tickIndex, s.tickSpacing, u); err != nil {
		return err
	}
	s.touched[arrayIndex] = true
	return nil
}

// TickOffset returns the offset of tickIndex within the array at arrayIndex.
func (s *Sequence) TickOffset(arrayIndex int, tickIndex int32) (int32, error) {
	a, err := s.array(arrayIndex)
	if err != nil {
		return 0, err
	}
	return a.Offset(tickIndex, s.tickSpacing)
}

// Touched returns the arrays modified through UpdateTick.
func (s *Sequence) Touched() []*Array {
	var out []*Array
	for i, a := range s.arrays {
		if s.touched[i] {
			out = append(out, a)
		}
	}
	return out
}

// NextInitializedTickIndex walks the arrays from startArrayIndex looking for
// the next initialized tick in swap direction. When an array has none:
//
//  1. the protocol's boundary array yields MIN_TICK_INDEX or MAX_TICK_INDEX;
//  2. the last supplied array yields its own edge tick, so the swap stops at
//     the edge of the supplied arrays;
//  3. otherwise the search continues in the next array.
func (s *Sequence) NextInitializedTickIndex(tickIndex int32, aToB bool, startArrayIndex int) (int, int32, error) {
	ticksInArray := TicksInArray(s.tickSpacing)
	searchIndex := tickIndex

	for arrayIndex := startArrayIndex; ; arrayIndex++ {
		a, err := s.array(arrayIndex)
		if err != nil {
			return 0, 0, err
		}

		next, ok, err := a.NextInitializedTickIndex(searchIndex, s.tickSpacing, aToB)
		if err != nil {
			return 0, 0, err
		}
		if ok {
			return arrayIndex, next, nil
		}

		if aToB && a.IsMin() {
			return arrayIndex, tickmath.MIN_TICK_INDEX, nil
		}
		if !aToB && a.IsMax(s.tickSpacing) {
			return arrayIndex, tickmath.MAX_TICK_INDEX, nil
		}

		if arrayIndex+1 == len(s.arrays) {
			if aToB {
				return arrayIndex, a.StartTickIndex, nil
			}
			return arrayIndex, a.StartTickIndex + ticksInArray - 1, nil
		}

		// first search position of the next array
		if aToB {
			searchIndex = a.StartTickIndex - 1
		} else {
			searchIndex = a.StartTickIndex + ticksInArray - 1
		}
	}
}
