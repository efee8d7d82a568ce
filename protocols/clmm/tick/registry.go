package tick

import (
	"fmt"
	"sort"
)

// Loader fetches a persisted tick array. It reports false when no array has
// been initialized at start.
type Loader interface {
	LoadTickArray(start int32) (*Array, bool, error)
}

// Registry is the sparse tick index space of one pool: tick arrays keyed by
// start index, loaded lazily on first use. Changes stay in memory until the
// caller persists Dirty().
//
// A Registry is not safe for concurrent use.
type Registry struct {
	tickSpacing uint16
	loader      Loader
	arrays      map[int32]*Array
	dirty       map[int32]struct{}
}

// NewRegistry creates a registry. loader may be nil for a purely in-memory
// registry.
func NewRegistry(tickSpacing uint16, loader Loader) (*Registry, error) {
	if tickSpacing == 0 {
		return nil, ErrInvalidTickSpacing
	}
	return &Registry{
		tickSpacing: tickSpacing,
		loader:      loader,
		arrays:      make(map[int32]*Array),
		dirty:       make(map[int32]struct{}),
	}, nil
}

func (r *Registry) TickSpacing() uint16 {
	return r.tickSpacing
}

func (r *Registry) lookup(start int32) (*Array, bool, error) {
	if a, ok := r.arrays[start]; ok {
		return a, true, nil
	}
	if r.loader == nil {
		return nil, false, nil
	}
	a, ok, err := r.loader.LoadTickArray(start)
	if err != nil {
		return nil, false, fmt.Errorf("load tick array %d: %w", start, err)
	}
	if !ok {
		return nil, false, nil
	}
	r.arrays[start] = a
	return a, true, nil
}

// Array returns the initialized array starting at start.
func (r *Registry) Array(start int32) (*Array, error) {
	a, ok, err := r.lookup(start)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: start %d", ErrTickArrayNotInitialized, start)
	}
	return a, nil
}

// Initialize creates an empty array at start unless one already exists. It
// reports whether a new array was created.
func (r *Registry) Initialize(start int32) (*Array, bool, error) {
	if !IsValidStartTick(start, r.tickSpacing) {
		return nil, false, ErrInvalidStartTick
	}
	a, ok, err := r.lookup(start)
	if err != nil {
		return nil, false, err
	}
	if ok {
		return a, false, nil
	}
	a, err = NewArray(start, r.tickSpacing)
	if err != nil {
		return nil, false, err
	}
	r.arrays[start] = a
	r.dirty[start] = struct{}{}
	return a, true, nil
}

// Tick returns the tick at a usable index whose array is initialized.
func (r *Registry) Tick(tickIndex int32) (Tick, error) {
	if !IsUsable(tickIndex, r.tickSpacing) {
		return Tick{}, fmt.Errorf("%w: index %d", ErrTickNotFound, tickIndex)
	}
	a, err := r.Array(StartTickIndex(tickIndex, r.tickSpacing, 0))
	if err != nil {
		return Tick{}, err
	}
	return a.Tick(tickIndex, r.tickSpacing)
}

// UpdateTick overwrites the tick at tickIndex.
func (r *Registry) UpdateTick(tickIndex int32, u Update) error {
	if !IsUsable(tickIndex, r.tickSpacing) {
		return fmt.Errorf("%w: index %d", ErrTickNotFound, tickIndex)
	}
	start := StartTickIndex(tickIndex, r.tickSpacing, 0)
	a, err := r.Array(start)
	if err != nil {
		return err
	}
	if err := a.UpdateTick(tickIndex, r.tickSpacing, u); err != nil {
		return err
	}
	r.dirty[start] = struct{}{}
	return nil
}

// Sequence collects up to MaxSequenceArrays consecutive initialized arrays in
// swap direction, starting with the array the swap starts in. The walk stops
// at the first missing array or at the protocol boundary.
func (r *Registry) Sequence(tickCurrentIndex int32, aToB bool) (*Sequence, error) {
	// A b-to-a search never returns its starting tick, so a current tick on
	// the last slot of an array starts the walk in the next array.
	searchTick := tickCurrentIndex
	if !aToB {
		searchTick += int32(r.tickSpacing)
	}
	start := StartTickIndex(searchTick, r.tickSpacing, 0)

	first, err := r.Array(start)
	if err != nil {
		return nil, err
	}
	arrays := []*Array{first}

	step := TicksInArray(r.tickSpacing)
	if aToB {
		step = -step
	}
	for len(arrays) < MaxSequenceArrays {
		last := arrays[len(arrays)-1]
		if (aToB && last.IsMin()) || (!aToB && last.IsMax(r.tickSpacing)) {
			break
		}
		next, ok, err := r.lookup(last.StartTickIndex + step)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		arrays = append(arrays, next)
	}
	return NewSequence(r.tickSpacing, arrays...)
}

// MarkDirty records arrays changed through a Sequence.
func (r *Registry) MarkDirty(arrays ...*Array) {
	for _, a := range arrays {
		r.dirty[a.StartTickIndex] = struct{}{}
	}
}

// Dirty returns every array created or changed, ordered by start index.
func (r *Registry) Dirty() []*Array {
	starts := make([]int32, 0, len(r.dirty))
	for start := range r.dirty {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	out := make([]*Array, 0, len(starts))
	for _, start := range starts {
		out = append(out, r.arrays[start])
	}
	return out
}

// InitializedTicks returns the initialized tick indexes of every loaded
// array in ascending order.
func (r *Registry) InitializedTicks() []int32 {
	var out []int32
	for _, a := range r.arrays {
		for i := range a.Ticks {
			if a.Ticks[i].Initialized {
				out = append(out, a.StartTickIndex+int32(i)*int32(r.tickSpacing))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
