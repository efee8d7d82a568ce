package clmm

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/pool"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/position"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/reward"
	"lukechampine.com/uint128"
)

// InitializeReward assigns mint and authority to the next free reward slot
// of a pool.
func (e *Engine) InitializeReward(ctx context.Context, poolID common.Hash, index int, mint, authority common.Address) (err error) {
	defer e.observe(opInitializeReward, time.Now(), &err)

	s, err := e.load(poolID)
	if err != nil {
		return err
	}
	if err := s.pool.InitializeReward(index, mint, authority); err != nil {
		return err
	}
	if err := e.commit(s); err != nil {
		return err
	}
	e.logger.Info("Reward initialized", "pool", poolID, "index", index, "mint", mint, "authority", authority)
	return nil
}

// SetRewardEmissions accrues rewards up to timestamp and then changes the
// emission rate of a slot. signer must be the slot's authority, and the
// slot's vault must hold at least one day of emissions at the new rate.
func (e *Engine) SetRewardEmissions(ctx context.Context, poolID common.Hash, index int, signer common.Address, emissionsPerSecondX64 uint128.Uint128, timestamp uint64) (err error) {
	defer e.observe(opSetRewardEmissions, time.Now(), &err)

	s, err := e.load(poolID)
	if err != nil {
		return err
	}
	if index < 0 || index >= reward.NumRewards || !s.pool.RewardInfos[index].Initialized() {
		return pool.ErrInvalidRewardIndex
	}
	info := s.pool.RewardInfos[index]
	if info.Authority != signer {
		return pool.ErrInvalidRewardAuthority
	}
	balance, err := e.cfg.VaultBalances.Balance(ctx, info.Mint, s.pool.Vault(info.Mint))
	if err != nil {
		return err
	}
	forfeited, err := s.pool.SetRewardEmissions(index, emissionsPerSecondX64, balance, timestamp)
	if err != nil {
		return err
	}
	if err := e.commit(s); err != nil {
		return err
	}
	e.reportForfeits(poolID, common.Hash{}, position.Forfeits{}, forfeited)
	e.logger.Info("Reward emissions set",
		"pool", poolID,
		"index", index,
		"emissions_per_second_x64", emissionsPerSecondX64,
	)
	return nil
}

// SetRewardAuthority hands a slot's authority to newAuthority. signer must
// be the current authority.
func (e *Engine) SetRewardAuthority(ctx context.Context, poolID common.Hash, index int, signer, newAuthority common.Address) (err error) {
	defer e.observe(opSetRewardAuthority, time.Now(), &err)

	s, err := e.load(poolID)
	if err != nil {
		return err
	}
	if err := s.pool.SetRewardAuthority(index, signer, newAuthority); err != nil {
		return err
	}
	return e.commit(s)
}
