// Package clmm is the operation layer of the concentrated-liquidity AMM. It
// loads pool state from the store, runs one accounting operation in memory,
// commits the result in a single batch and only then executes the token
// transfers the operation produced.
package clmm

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/pool"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/position"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/store"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/tick"
)

const (
	opInitializePool       = "initialize_pool"
	opInitializeTickArray  = "initialize_tick_array"
	opOpenPosition         = "open_position"
	opClosePosition        = "close_position"
	opModifyLiquidity      = "modify_liquidity"
	opIncreaseLiquidity    = "increase_liquidity"
	opDecreaseLiquidity    = "decrease_liquidity"
	opUpdateFeesAndRewards = "update_fees_and_rewards"
	opCollectFees          = "collect_fees"
	opCollectReward        = "collect_reward"
	opCollectProtocolFees  = "collect_protocol_fees"
	opSwap                 = "swap"
	opInitializeReward     = "initialize_reward"
	opSetRewardEmissions   = "set_reward_emissions"
	opSetRewardAuthority   = "set_reward_authority"
	opSetFeeRate           = "set_fee_rate"
	opSetProtocolFeeRate   = "set_protocol_fee_rate"
)

// Engine runs pool operations against the store.
//
// Operations on the same pool must not run concurrently; the host is
// expected to serialize them.
type Engine struct {
	cfg     Config
	store   *store.Store
	logger  Logger
	metrics *Metrics
}

// NewEngine constructs an engine from a configuration, returning an error if
// the config is invalid.
func NewEngine(cfg *Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:     *cfg,
		store:   cfg.Store,
		logger:  cfg.Logger,
		metrics: NewMetrics(cfg.Registry),
	}, nil
}

// session is the in-memory state of one pool for the duration of one
// operation. Nothing in it is visible to other operations until commit.
type session struct {
	pool      *pool.Pool
	ticks     *tick.Registry
	positions []*position.Position
	deleted   []common.Hash
}

func (e *Engine) load(poolID common.Hash) (*session, error) {
	p, ok, err := e.store.Pool(poolID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, poolID)
	}
	reg, err := tick.NewRegistry(p.TickSpacing, e.store.TickLoader(poolID))
	if err != nil {
		return nil, err
	}
	return &session{pool: p, ticks: reg}, nil
}

// loadPosition opens a session on the pool a position belongs to.
func (e *Engine) loadPosition(positionID common.Hash) (*session, *position.Position, error) {
	pos, ok, err := e.store.Position(positionID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrPositionNotFound, positionID)
	}
	s, err := e.load(pos.Pool)
	if err != nil {
		return nil, nil, err
	}
	s.positions = append(s.positions, pos)
	return s, pos, nil
}

func (e *Engine) commit(s *session) error {
	return e.store.Commit(store.ChangeSet{
		Pool:             s.pool,
		TickArrays:       s.ticks.Dirty(),
		Positions:        s.positions,
		DeletedPositions: s.deleted,
	})
}

// settle executes transfers in order, skipping empty ones. The accounting
// they belong to is already committed, so a failure is reported without
// undoing it.
func (e *Engine) settle(ctx context.Context, op string, transfers []Transfer) ([]Transfer, error) {
	done := make([]Transfer, 0, len(transfers))
	for _, t := range transfers {
		if t.Amount == 0 {
			continue
		}
		if err := e.cfg.Transferer.Transfer(ctx, t); err != nil {
			e.logger.Error("Transfer failed after commit",
				"operation", op,
				"token", t.Token,
				"from", t.From,
				"to", t.To,
				"amount", t.Amount,
				"error", err,
			)
			return done, fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
		done = append(done, t)
	}
	return done, nil
}

// observe records the outcome of an operation started at start. It is
// deferred with a pointer to the operation's named error result.
func (e *Engine) observe(op string, start time.Time, errp *error) {
	e.metrics.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	err := *errp

	result := "ok"
	switch {
	case err == nil:
	case IsInvariantViolation(err):
		result = "invariant_violation"
		e.logger.Error("Operation aborted on invariant violation", "operation", op, "error", err)
	default:
		result = "error"
		e.logger.Debug("Operation refused", "operation", op, "error", err)
	}
	e.metrics.operations.WithLabelValues(op, result).Inc()
}

// reportForfeits logs and counts owed amounts dropped on overflow.
func (e *Engine) reportForfeits(poolID, positionID common.Hash, f position.Forfeits, rewardForfeited int) {
	fees, rewards := 0, rewardForfeited
	if f.FeeA {
		fees++
	}
	if f.FeeB {
		fees++
	}
	for _, r := range f.Rewards {
		if r {
			rewards++
		}
	}
	if fees == 0 && rewards == 0 {
		return
	}
	e.metrics.forfeits.WithLabelValues("fee").Add(float64(fees))
	e.metrics.forfeits.WithLabelValues("reward").Add(float64(rewards))
	e.logger.Warn("Accrued amounts forfeited on overflow",
		"pool", poolID,
		"position", positionID,
		"fee_a", f.FeeA,
		"fee_b", f.FeeB,
		"rewards", f.Rewards,
		"reward_growth_slots", rewardForfeited,
	)
}

// Pool returns the stored state of a pool.
func (e *Engine) Pool(poolID common.Hash) (*pool.Pool, error) {
	p, ok, err := e.store.Pool(poolID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, poolID)
	}
	return p, nil
}

// Position returns the stored state of a position.
func (e *Engine) Position(positionID common.Hash) (*position.Position, error) {
	p, ok, err := e.store.Position(positionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPositionNotFound, positionID)
	}
	return p, nil
}

// TickArray returns the stored tick array of a pool starting at start.
func (e *Engine) TickArray(poolID common.Hash, start int32) (*tick.Array, error) {
	a, ok, err := e.store.TickArray(poolID, start)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: start %d", tick.ErrTickArrayNotInitialized, start)
	}
	return a, nil
}

// InitializedTicks returns, in ascending order, the initialized tick indexes
// held by the pool's arrays starting at starts.
func (e *Engine) InitializedTicks(poolID common.Hash, starts ...int32) ([]int32, error) {
	s, err := e.load(poolID)
	if err != nil {
		return nil, err
	}
	for _, start := range starts {
		if _, err := s.ticks.Array(start); err != nil {
			return nil, err
		}
	}
	return s.ticks.InitializedTicks(), nil
}

// InitializePool creates a pool. A pool is identified by its token pair and
// tick spacing, so the same combination can only be created once.
func (e *Engine) InitializePool(ctx context.Context, params pool.Params, timestamp uint64) (p *pool.Pool, err error) {
	defer e.observe(opInitializePool, time.Now(), &err)

	p, err = pool.New(params, timestamp)
	if err != nil {
		return nil, err
	}
	_, exists, err := e.store.Pool(p.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrPoolExists, p.ID)
	}
	if err := e.store.Commit(store.ChangeSet{Pool: p}); err != nil {
		return nil, err
	}
	e.logger.Info("Pool initialized",
		"pool", p.ID,
		"tick_spacing", p.TickSpacing,
		"fee_rate", p.FeeRate,
		"tick_current_index", p.TickCurrentIndex,
	)
	return p, nil
}

// InitializeTickArray creates the tick array starting at start. It reports
// false, without error, if the array already exists.
func (e *Engine) InitializeTickArray(ctx context.Context, poolID common.Hash, start int32) (created bool, err error) {
	defer e.observe(opInitializeTickArray, time.Now(), &err)

	s, err := e.load(poolID)
	if err != nil {
		return false, err
	}
	_, created, err = s.ticks.Initialize(start)
	if err != nil || !created {
		return false, err
	}
	if err := e.commit(s); err != nil {
		return false, err
	}
	return true, nil
}

// SetFeeRate changes a pool's swap fee rate.
func (e *Engine) SetFeeRate(ctx context.Context, poolID common.Hash, feeRate uint16) (err error) {
	defer e.observe(opSetFeeRate, time.Now(), &err)

	s, err := e.load(poolID)
	if err != nil {
		return err
	}
	if err := s.pool.SetFeeRate(feeRate); err != nil {
		return err
	}
	return e.commit(s)
}

// SetProtocolFeeRate changes the protocol's share of a pool's swap fees.
func (e *Engine) SetProtocolFeeRate(ctx context.Context, poolID common.Hash, protocolFeeRate uint16) (err error) {
	defer e.observe(opSetProtocolFeeRate, time.Now(), &err)

	s, err := e.load(poolID)
	if err != nil {
		return err
	}
	if err := s.pool.SetProtocolFeeRate(protocolFeeRate); err != nil {
		return err
	}
	return e.commit(s)
}

// CollectProtocolFees pays the protocol fees owed by a pool to recipient.
func (e *Engine) CollectProtocolFees(ctx context.Context, poolID common.Hash, recipient common.Address) (transfers []Transfer, err error) {
	defer e.observe(opCollectProtocolFees, time.Now(), &err)

	s, err := e.load(poolID)
	if err != nil {
		return nil, err
	}
	a, b := s.pool.CollectProtocolFees()
	if err := e.commit(s); err != nil {
		return nil, err
	}
	return e.settle(ctx, opCollectProtocolFees, []Transfer{
		{Token: s.pool.TokenMintA, From: s.pool.Vault(s.pool.TokenMintA), To: recipient, Amount: a},
		{Token: s.pool.TokenMintB, From: s.pool.Vault(s.pool.TokenMintB), To: recipient, Amount: b},
	})
}
