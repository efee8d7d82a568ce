package pool

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/bitmath"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/fixedpoint"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/position"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/reward"
	"lukechampine.com/uint128"
)

// DAY_IN_SECONDS is the emission window a reward vault must cover.
const DAY_IN_SECONDS = 60 * 60 * 24

var (
	ErrInvalidRewardIndex            = errors.New("invalid reward index")
	ErrInvalidRewardAuthority        = errors.New("signer is not the reward authority")
	ErrRewardVaultAmountInsufficient = errors.New("reward vault cannot cover one day of emissions")
	ErrInvalidRewardMint             = errors.New("reward mint must be set")
)

// NextRewardInfos accrues reward growth for the time elapsed since the last
// update. Each initialized slot grows by timeDelta * emissions / liquidity.
// A slot whose growth delta overflows accrues nothing and is reported in
// forfeited. Nothing accrues while the pool has no active liquidity.
func (p *Pool) NextRewardInfos(nextTimestamp uint64) (infos reward.Infos, forfeited int, err error) {
	current := p.RewardLastUpdatedTimestamp
	if nextTimestamp < current {
		return reward.Infos{}, 0, ErrInvalidTimestamp
	}
	if p.Liquidity.IsZero() || nextTimestamp == current {
		return p.RewardInfos, 0, nil
	}

	infos = p.RewardInfos
	timeDelta := uint128.From64(nextTimestamp - current)
	for i := range infos {
		if !infos[i].Initialized() {
			continue
		}
		delta, err := bitmath.CheckedMulDiv(timeDelta, infos[i].EmissionsPerSecondX64, p.Liquidity)
		if err != nil {
			forfeited++
			continue
		}
		infos[i].GrowthGlobalX64 = infos[i].GrowthGlobalX64.Add(fixedpoint.GrowthFrom(delta))
	}
	return infos, forfeited, nil
}

// InitializeReward assigns a token and authority to a slot. Slots are
// filled in order and never cleared.
func (p *Pool) InitializeReward(index int, mint, authority common.Address) error {
	if index < 0 || index >= reward.NumRewards {
		return ErrInvalidRewardIndex
	}
	if mint == (common.Address{}) {
		return ErrInvalidRewardMint
	}
	lowest, ok := p.RewardInfos.LowestUninitialized()
	if !ok || lowest != index {
		return ErrInvalidRewardIndex
	}
	p.RewardInfos[index].Mint = mint
	p.RewardInfos[index].Authority = authority
	return nil
}

// SetRewardEmissions accrues rewards up to timestamp and then changes the
// emission rate of one slot. vaultAmount must cover a full day at the new
// rate.
func (p *Pool) SetRewardEmissions(index int, emissionsPerSecondX64 uint128.Uint128, vaultAmount, timestamp uint64) (forfeited int, err error) {
	if index < 0 || index >= reward.NumRewards || !p.RewardInfos[index].Initialized() {
		return 0, ErrInvalidRewardIndex
	}
	emissionsPerDay, err := bitmath.CheckedMulShiftRight(uint128.From64(DAY_IN_SECONDS), emissionsPerSecondX64)
	if err != nil {
		return 0, err
	}
	if vaultAmount < emissionsPerDay {
		return 0, ErrRewardVaultAmountInsufficient
	}

	infos, forfeited, err := p.NextRewardInfos(timestamp)
	if err != nil {
		return 0, err
	}
	p.UpdateRewards(infos, timestamp)
	p.RewardInfos[index].EmissionsPerSecondX64 = emissionsPerSecondX64
	return forfeited, nil
}

// SetRewardAuthority hands a slot's authority to newAuthority. signer must
// be the current authority.
func (p *Pool) SetRewardAuthority(index int, signer, newAuthority common.Address) error {
	if index < 0 || index >= reward.NumRewards {
		return ErrInvalidRewardIndex
	}
	if p.RewardInfos[index].Authority != signer {
		return ErrInvalidRewardAuthority
	}
	p.RewardInfos[index].Authority = newAuthority
	return nil
}

// CollectReward returns the amount of a position's owed reward that the
// vault can pay and what stays owed afterwards.
func CollectReward(info position.RewardInfo, vaultAmount uint64) (transfer, remaining uint64) {
	if info.AmountOwed > vaultAmount {
		return vaultAmount, info.AmountOwed - vaultAmount
	}
	return info.AmountOwed, 0
}
