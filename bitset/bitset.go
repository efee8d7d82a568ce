package bitset

import (
	"fmt"
	"math/bits"
)

// NewBitSet returns a zeroed set able to hold len bits.
func NewBitSet(len uint64) BitSet {
	words := (len + 63) / 64
	return make([]uint64, words)
}

// BitSet is a fixed-size set of bit flags. Index arguments must be below the
// size the set was created with.
type BitSet []uint64

func (b BitSet) IsSet(index uint64) bool {
	return b[index/64]&(uint64(1)<<(index%64)) != 0
}

func (b BitSet) Set(index uint64) {
	b[index/64] |= uint64(1) << (index % 64)
}

func (b BitSet) Unset(index uint64) {
	b[index/64] &^= uint64(1) << (index % 64)
}

// SetTo sets or unsets a bit.
func (b BitSet) SetTo(index uint64, value bool) {
	if value {
		b.Set(index)
		return
	}
	b.Unset(index)
}

func (b BitSet) Clear() {
	for i := range b {
		b[i] = 0
	}
}

func (b BitSet) SetFrom(o BitSet) {
	if len(b) != len(o) {
		panic(fmt.Sprintf("bitsets must be same size: got %d vs %d", len(b), len(o)))
	}
	copy(b, o)
}

// Clone returns an independent copy.
func (b BitSet) Clone() BitSet {
	c := make(BitSet, len(b))
	copy(c, b)
	return c
}

// Count returns the number of set bits.
func (b BitSet) Count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

// NextSet returns the lowest set index >= from.
func (b BitSet) NextSet(from uint64) (uint64, bool) {
	word := from / 64
	if word >= uint64(len(b)) {
		return 0, false
	}

	w := b[word] >> (from % 64)
	if w != 0 {
		return from + uint64(bits.TrailingZeros64(w)), true
	}
	for word++; word < uint64(len(b)); word++ {
		if b[word] != 0 {
			return word*64 + uint64(bits.TrailingZeros64(b[word])), true
		}
	}
	return 0, false
}

// PrevSet returns the highest set index <= from.
func (b BitSet) PrevSet(from uint64) (uint64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	word := from / 64
	if word >= uint64(len(b)) {
		word = uint64(len(b)) - 1
		from = word*64 + 63
	}

	w := b[word] << (63 - from%64)
	if w != 0 {
		return from - uint64(bits.LeadingZeros64(w)), true
	}
	for word > 0 {
		word--
		if b[word] != 0 {
			return word*64 + 63 - uint64(bits.LeadingZeros64(b[word])), true
		}
	}
	return 0, false
}
