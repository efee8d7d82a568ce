package clmm

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/fixedpoint"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/pool"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/position"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/reward"
	"lukechampine.com/uint128"
)

// LiquidityResult is the outcome of a liquidity change.
type LiquidityResult struct {
	Position  *position.Position
	AmountA   uint64
	AmountB   uint64
	Transfers []Transfer
}

// IncreaseLiquidityParams describe a deposit into an existing position.
type IncreaseLiquidityParams struct {
	PositionID      common.Hash
	LiquidityAmount uint128.Uint128
	TokenMaxA       uint64
	TokenMaxB       uint64
	Timestamp       uint64
}

// DecreaseLiquidityParams describe a withdrawal from an existing position.
type DecreaseLiquidityParams struct {
	PositionID      common.Hash
	LiquidityAmount uint128.Uint128
	TokenMinA       uint64
	TokenMinB       uint64
	Timestamp       uint64
}

// OpenPosition creates an empty position on [tickLowerIndex, tickUpperIndex).
func (e *Engine) OpenPosition(ctx context.Context, poolID common.Hash, owner common.Address, tickLowerIndex, tickUpperIndex int32) (pos *position.Position, err error) {
	defer e.observe(opOpenPosition, time.Now(), &err)

	s, err := e.load(poolID)
	if err != nil {
		return nil, err
	}
	id := position.NewID(poolID, s.pool.PositionNonce)
	pos, err = position.Open(id, poolID, owner, s.pool.TickSpacing, tickLowerIndex, tickUpperIndex)
	if err != nil {
		return nil, err
	}
	s.pool.PositionNonce++
	s.positions = append(s.positions, pos)
	if err := e.commit(s); err != nil {
		return nil, err
	}
	e.logger.Info("Position opened",
		"pool", poolID,
		"position", id,
		"owner", owner,
		"tick_lower_index", tickLowerIndex,
		"tick_upper_index", tickUpperIndex,
	)
	return pos, nil
}

// ClosePosition deletes a position that holds no liquidity and is owed
// nothing.
func (e *Engine) ClosePosition(ctx context.Context, positionID common.Hash) (err error) {
	defer e.observe(opClosePosition, time.Now(), &err)

	s, pos, err := e.loadPosition(positionID)
	if err != nil {
		return err
	}
	if !pos.IsEmpty() {
		return position.ErrClosePositionNotEmpty
	}
	s.positions = nil
	s.deleted = append(s.deleted, positionID)
	return e.commit(s)
}

// modifyLiquidity applies a liquidity change to the session's pool, ticks
// and position.
func (e *Engine) modifyLiquidity(s *session, pos *position.Position, delta fixedpoint.Int128, timestamp uint64) error {
	lower, err := s.ticks.Tick(pos.TickLowerIndex)
	if err != nil {
		return err
	}
	upper, err := s.ticks.Tick(pos.TickUpperIndex)
	if err != nil {
		return err
	}

	u, err := s.pool.ModifyLiquidity(pos, lower, upper, delta, timestamp)
	if err != nil {
		return err
	}
	if err := s.ticks.UpdateTick(pos.TickLowerIndex, u.TickLowerUpdate); err != nil {
		return err
	}
	if err := s.ticks.UpdateTick(pos.TickUpperIndex, u.TickUpperUpdate); err != nil {
		return err
	}
	s.pool.UpdateRewardsAndLiquidity(u.RewardInfos, u.PoolLiquidity, timestamp)
	pos.Apply(u.PositionUpdate)

	e.reportForfeits(s.pool.ID, pos.ID, u.Forfeits, u.RewardForfeited)
	return nil
}

// liquidityTransfers moves token amounts between the owner and the pool
// vaults, into the pool for deposits.
func liquidityTransfers(p *pool.Pool, owner common.Address, amountA, amountB uint64, deposit bool) []Transfer {
	transfers := []Transfer{
		{Token: p.TokenMintA, From: owner, To: p.Vault(p.TokenMintA), Amount: amountA},
		{Token: p.TokenMintB, From: owner, To: p.Vault(p.TokenMintB), Amount: amountB},
	}
	if !deposit {
		for i := range transfers {
			transfers[i].From, transfers[i].To = transfers[i].To, transfers[i].From
		}
	}
	return transfers
}

// ModifyLiquidity changes a position's liquidity by a signed delta and
// settles the token amounts at the current price. A zero delta only
// refreshes owed fees and rewards.
func (e *Engine) ModifyLiquidity(ctx context.Context, positionID common.Hash, delta fixedpoint.Int128, timestamp uint64) (res LiquidityResult, err error) {
	defer e.observe(opModifyLiquidity, time.Now(), &err)

	s, pos, err := e.loadPosition(positionID)
	if err != nil {
		return LiquidityResult{}, err
	}

	var amountA, amountB uint64
	if !delta.IsZero() {
		amountA, amountB, err = s.pool.TokenDeltas(pos.TickLowerIndex, pos.TickUpperIndex, delta)
		if err != nil {
			return LiquidityResult{}, err
		}
	}
	return e.finishLiquidity(ctx, opModifyLiquidity, s, pos, delta, amountA, amountB, timestamp)
}

// IncreaseLiquidity deposits liquidity into a position, failing if the token
// amounts it needs exceed the given maximums.
func (e *Engine) IncreaseLiquidity(ctx context.Context, params IncreaseLiquidityParams) (res LiquidityResult, err error) {
	defer e.observe(opIncreaseLiquidity, time.Now(), &err)

	s, pos, err := e.loadPosition(params.PositionID)
	if err != nil {
		return LiquidityResult{}, err
	}
	delta, amountA, amountB, err := s.pool.IncreaseLiquidityAmounts(pos.TickLowerIndex, pos.TickUpperIndex,
		params.LiquidityAmount, params.TokenMaxA, params.TokenMaxB)
	if err != nil {
		return LiquidityResult{}, err
	}
	return e.finishLiquidity(ctx, opIncreaseLiquidity, s, pos, delta, amountA, amountB, params.Timestamp)
}

// DecreaseLiquidity withdraws liquidity from a position, failing if the
// token amounts it returns fall below the given minimums.
func (e *Engine) DecreaseLiquidity(ctx context.Context, params DecreaseLiquidityParams) (res LiquidityResult, err error) {
	defer e.observe(opDecreaseLiquidity, time.Now(), &err)

	s, pos, err := e.loadPosition(params.PositionID)
	if err != nil {
		return LiquidityResult{}, err
	}
	delta, amountA, amountB, err := s.pool.DecreaseLiquidityAmounts(pos.TickLowerIndex, pos.TickUpperIndex,
		params.LiquidityAmount, params.TokenMinA, params.TokenMinB)
	if err != nil {
		return LiquidityResult{}, err
	}
	return e.finishLiquidity(ctx, opDecreaseLiquidity, s, pos, delta, amountA, amountB, params.Timestamp)
}

func (e *Engine) finishLiquidity(ctx context.Context, op string, s *session, pos *position.Position, delta fixedpoint.Int128, amountA, amountB, timestamp uint64) (LiquidityResult, error) {
	if err := e.modifyLiquidity(s, pos, delta, timestamp); err != nil {
		return LiquidityResult{}, err
	}
	if err := e.commit(s); err != nil {
		return LiquidityResult{}, err
	}

	res := LiquidityResult{Position: pos, AmountA: amountA, AmountB: amountB}
	if delta.IsZero() {
		return res, nil
	}
	e.logger.Debug("Liquidity modified",
		"pool", s.pool.ID,
		"position", pos.ID,
		"delta", delta,
		"amount_a", amountA,
		"amount_b", amountB,
		"pool_liquidity", s.pool.Liquidity,
	)
	transfers, err := e.settle(ctx, op, liquidityTransfers(s.pool, pos.Owner, amountA, amountB, delta.Sign() > 0))
	res.Transfers = transfers
	return res, err
}

// UpdateFeesAndRewards settles the fees and rewards a position has earned
// up to timestamp into its owed amounts.
func (e *Engine) UpdateFeesAndRewards(ctx context.Context, positionID common.Hash, timestamp uint64) (pos *position.Position, err error) {
	defer e.observe(opUpdateFeesAndRewards, time.Now(), &err)

	s, pos, err := e.loadPosition(positionID)
	if err != nil {
		return nil, err
	}
	if err := e.modifyLiquidity(s, pos, fixedpoint.Int128{}, timestamp); err != nil {
		return nil, err
	}
	if err := e.commit(s); err != nil {
		return nil, err
	}
	return pos, nil
}

// refresh settles earnings before a collect. A position without liquidity
// has nothing new to settle.
func (e *Engine) refresh(s *session, pos *position.Position, timestamp uint64) error {
	if pos.Liquidity.IsZero() {
		return nil
	}
	return e.modifyLiquidity(s, pos, fixedpoint.Int128{}, timestamp)
}

// CollectFees settles a position's fees up to timestamp and pays out
// everything owed to its owner.
func (e *Engine) CollectFees(ctx context.Context, positionID common.Hash, timestamp uint64) (transfers []Transfer, err error) {
	defer e.observe(opCollectFees, time.Now(), &err)

	s, pos, err := e.loadPosition(positionID)
	if err != nil {
		return nil, err
	}
	if err := e.refresh(s, pos, timestamp); err != nil {
		return nil, err
	}
	a, b := pos.FeeOwedA, pos.FeeOwedB
	pos.ResetFeesOwed()
	if err := e.commit(s); err != nil {
		return nil, err
	}
	return e.settle(ctx, opCollectFees, liquidityTransfers(s.pool, pos.Owner, a, b, false))
}

// CollectReward settles a position's rewards up to timestamp and pays out
// what the reward vault holds of the amount owed in slot index. Anything the
// vault cannot cover stays owed.
func (e *Engine) CollectReward(ctx context.Context, positionID common.Hash, index int, timestamp uint64) (transfers []Transfer, err error) {
	defer e.observe(opCollectReward, time.Now(), &err)

	s, pos, err := e.loadPosition(positionID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= reward.NumRewards || !s.pool.RewardInfos[index].Initialized() {
		return nil, pool.ErrInvalidRewardIndex
	}
	if err := e.refresh(s, pos, timestamp); err != nil {
		return nil, err
	}

	mint := s.pool.RewardInfos[index].Mint
	vault := s.pool.Vault(mint)
	balance, err := e.cfg.VaultBalances.Balance(ctx, mint, vault)
	if err != nil {
		return nil, err
	}
	amount, remaining := pool.CollectReward(pos.RewardInfos[index], balance)
	if err := pos.UpdateRewardOwed(index, remaining); err != nil {
		return nil, err
	}
	if err := e.commit(s); err != nil {
		return nil, err
	}
	return e.settle(ctx, opCollectReward, []Transfer{{Token: mint, From: vault, To: pos.Owner, Amount: amount}})
}
