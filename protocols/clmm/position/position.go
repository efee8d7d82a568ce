package position

import (
	"encoding/binary"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/fixedpoint"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/reward"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/tick"
	"github.com/zeebo/blake3"
	"lukechampine.com/uint128"
)

var (
	ErrInvalidTickIndex      = errors.New("invalid tick index")
	ErrFullRangeOnlyPool     = errors.New("pool only accepts full range positions")
	ErrClosePositionNotEmpty = errors.New("position has liquidity or owed amounts")
	ErrInvalidRewardIndex    = errors.New("invalid reward index")
)

// RewardInfo tracks one reward slot of a position.
type RewardInfo struct {
	GrowthInsideCheckpoint fixedpoint.Growth `json:"growthInsideCheckpoint"`
	AmountOwed             uint64            `json:"amountOwed"`
}

// Position is an owner's liquidity claim on [TickLowerIndex, TickUpperIndex).
type Position struct {
	ID             common.Hash    `json:"id"`
	Pool           common.Hash    `json:"pool"`
	Owner          common.Address `json:"owner"`
	TickLowerIndex int32          `json:"tickLowerIndex"`
	TickUpperIndex int32          `json:"tickUpperIndex"`

	Liquidity            uint128.Uint128               `json:"liquidity"`
	FeeGrowthCheckpointA fixedpoint.Growth             `json:"feeGrowthCheckpointA"`
	FeeGrowthCheckpointB fixedpoint.Growth             `json:"feeGrowthCheckpointB"`
	FeeOwedA             uint64                        `json:"feeOwedA"`
	FeeOwedB             uint64                        `json:"feeOwedB"`
	RewardInfos          [reward.NumRewards]RewardInfo `json:"rewardInfos"`
}

// Update carries every field that changes when liquidity is modified. It is
// always applied as a whole so checkpoints and owed amounts stay in step.
type Update struct {
	Liquidity            uint128.Uint128
	FeeGrowthCheckpointA fixedpoint.Growth
	FeeGrowthCheckpointB fixedpoint.Growth
	FeeOwedA             uint64
	FeeOwedB             uint64
	RewardInfos          [reward.NumRewards]RewardInfo
}

// NewID derives the identity of the nonce-th position opened in a pool.
func NewID(pool common.Hash, nonce uint64) common.Hash {
	h := blake3.New()
	_, _ = h.Write([]byte("clmm/position"))
	_, _ = h.Write(pool.Bytes())
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	_, _ = h.Write(n[:])
	return common.BytesToHash(h.Sum(nil))
}

// Open validates the bounds of a new position. Both bounds must be usable
// ticks with lower < upper, and pools at or above the full-range-only tick
// spacing only accept the full range.
func Open(id, pool common.Hash, owner common.Address, tickSpacing uint16, tickLowerIndex, tickUpperIndex int32) (*Position, error) {
	if !tick.IsUsable(tickLowerIndex, tickSpacing) ||
		!tick.IsUsable(tickUpperIndex, tickSpacing) ||
		tickLowerIndex >= tickUpperIndex {
		return nil, ErrInvalidTickIndex
	}
	if tick.IsFullRangeOnly(tickSpacing) {
		lower, upper := tick.FullRangeIndexes(tickSpacing)
		if tickLowerIndex != lower || tickUpperIndex != upper {
			return nil, ErrFullRangeOnlyPool
		}
	}
	return &Position{
		ID:             id,
		Pool:           pool,
		Owner:          owner,
		TickLowerIndex: tickLowerIndex,
		TickUpperIndex: tickUpperIndex,
	}, nil
}

// Apply replaces every mutable field with u.
func (p *Position) Apply(u Update) {
	p.Liquidity = u.Liquidity
	p.FeeGrowthCheckpointA = u.FeeGrowthCheckpointA
	p.FeeGrowthCheckpointB = u.FeeGrowthCheckpointB
	p.FeeOwedA = u.FeeOwedA
	p.FeeOwedB = u.FeeOwedB
	p.RewardInfos = u.RewardInfos
}

// IsEmpty reports whether the position holds no liquidity and nothing is
// owed to it.
func (p *Position) IsEmpty() bool {
	if !p.Liquidity.IsZero() || p.FeeOwedA != 0 || p.FeeOwedB != 0 {
		return false
	}
	for _, r := range p.RewardInfos {
		if r.AmountOwed != 0 {
			return false
		}
	}
	return true
}

func (p *Position) ResetFeesOwed() {
	p.FeeOwedA = 0
	p.FeeOwedB = 0
}

// UpdateRewardOwed sets the owed amount of one reward slot, typically to
// what remains after a collect.
func (p *Position) UpdateRewardOwed(index int, amountOwed uint64) error {
	if index < 0 || index >= reward.NumRewards {
		return ErrInvalidRewardIndex
	}
	p.RewardInfos[index].AmountOwed = amountOwed
	return nil
}
