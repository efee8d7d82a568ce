package reward

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/fixedpoint"
	"lukechampine.com/uint128"
)

// NumRewards is the number of reward slots carried by every pool, tick and
// position.
const NumRewards = 3

// Info is one pool-level reward slot.
type Info struct {
	// Mint identifies the reward token. The zero address marks an
	// uninitialized slot.
	Mint common.Address
	// Authority may change the emission rate and hand over the authority.
	Authority common.Address
	// EmissionsPerSecondX64 is the Q64.64 number of reward tokens emitted per
	// second across all in-range liquidity.
	EmissionsPerSecondX64 uint128.Uint128
	// GrowthGlobalX64 is the cumulative reward per unit of liquidity.
	GrowthGlobalX64 fixedpoint.Growth
}

// Initialized reports whether a reward token has been assigned. Once set, a
// slot never reverts to uninitialized.
func (i Info) Initialized() bool {
	return i.Mint != (common.Address{})
}

// Infos holds every reward slot of a pool.
type Infos [NumRewards]Info

// Growths returns the global growth of every slot.
func (r Infos) Growths() [NumRewards]fixedpoint.Growth {
	var out [NumRewards]fixedpoint.Growth
	for i, info := range r {
		out[i] = info.GrowthGlobalX64
	}
	return out
}

// LowestUninitialized returns the first slot without a mint, or false when
// every slot is taken.
func (r Infos) LowestUninitialized() (int, bool) {
	for i, info := range r {
		if !info.Initialized() {
			return i, true
		}
	}
	return 0, false
}
