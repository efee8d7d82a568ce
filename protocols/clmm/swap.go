package clmm

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/normalfinance/normal-v1-stellar-sub001/oracle"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/pool"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/position"
)

// SwapResult is the outcome of a swap with the transfers that settled it.
type SwapResult struct {
	pool.SwapResult
	Transfers []Transfer
}

// checkOracle refuses to trade against a missing, stale or uncertain price.
func (e *Engine) checkOracle(timestamp uint64) error {
	if e.cfg.Oracle == nil {
		return nil
	}
	pd, err := e.cfg.Oracle.PriceData(int64(timestamp))
	if err != nil {
		return fmt.Errorf("%w: %s feed: %w", oracle.ErrOracleInvalid, oracle.Kind(e.cfg.Oracle), err)
	}
	return e.cfg.OracleValidity.Check(pd)
}

// Swap trades against a pool on behalf of trader. The walk can use the
// array the current tick is in and up to two initialized arrays after it in
// swap direction.
func (e *Engine) Swap(ctx context.Context, poolID common.Hash, trader common.Address, params pool.SwapParams, timestamp uint64) (res SwapResult, err error) {
	defer e.observe(opSwap, time.Now(), &err)

	if err := e.checkOracle(timestamp); err != nil {
		return SwapResult{}, err
	}

	s, err := e.load(poolID)
	if err != nil {
		return SwapResult{}, err
	}
	seq, err := s.ticks.Sequence(s.pool.TickCurrentIndex, params.AToB)
	if err != nil {
		return SwapResult{}, err
	}
	r, err := s.pool.Swap(seq, params, timestamp)
	if err != nil {
		return SwapResult{}, err
	}
	s.pool.ApplySwap(r)
	s.ticks.MarkDirty(seq.Touched()...)
	if err := e.commit(s); err != nil {
		return SwapResult{}, err
	}

	e.metrics.swapSteps.Observe(float64(r.Steps))
	e.metrics.ticksCrossed.Add(float64(r.TicksCrossed))
	if r.RewardForfeited > 0 {
		e.reportForfeits(poolID, common.Hash{}, position.Forfeits{}, r.RewardForfeited)
	}
	e.logger.Debug("Swap executed",
		"pool", poolID,
		"a_to_b", r.AToB,
		"amount_a", r.AmountA,
		"amount_b", r.AmountB,
		"steps", r.Steps,
		"ticks_crossed", r.TicksCrossed,
		"tick_current_index", r.NextTickIndex,
	)

	p := s.pool
	in := Transfer{Token: p.TokenMintB, From: trader, To: p.Vault(p.TokenMintB), Amount: r.AmountB}
	out := Transfer{Token: p.TokenMintA, From: p.Vault(p.TokenMintA), To: trader, Amount: r.AmountA}
	if r.AToB {
		in = Transfer{Token: p.TokenMintA, From: trader, To: p.Vault(p.TokenMintA), Amount: r.AmountA}
		out = Transfer{Token: p.TokenMintB, From: p.Vault(p.TokenMintB), To: trader, Amount: r.AmountB}
	}
	transfers, err := e.settle(ctx, opSwap, []Transfer{in, out})
	return SwapResult{SwapResult: r, Transfers: transfers}, err
}
