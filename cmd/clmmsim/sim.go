package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ethereum/go-ethereum/common"
	"github.com/normalfinance/normal-v1-stellar-sub001/auction"
	"github.com/normalfinance/normal-v1-stellar-sub001/cmd/clmmsim/config"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/pricemath"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/pool"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/position"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/store"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/tick"
	"github.com/prometheus/client_golang/prometheus"
	"lukechampine.com/uint128"
)

// arraysAroundPrice is how many tick arrays are initialized on each side of
// the starting price.
const arraysAroundPrice = 2

type swapOutcome struct {
	cfg config.SwapConfig
	res clmm.SwapResult
	err error
}

type report struct {
	pool      *pool.Pool
	decimalsA uint8
	decimalsB uint8
	positions []*position.Position
	fees      map[common.Hash][2]uint64
	swaps     []swapOutcome
	auction   [][2]uint64
	// arrays maps each initialized tick array start to its initialized
	// tick count.
	arrays [][2]int32
	ticks  []int32
}

type simulation struct {
	cfg    *config.SimConfig
	engine *clmm.Engine
	ledger *ledger
	logger *slog.Logger
	funded map[common.Address]bool
	arrays []int32
	now    uint64
	close  func() error
}

func run(ctx context.Context, cfg *config.SimConfig, logger *slog.Logger, registry prometheus.Registerer) error {
	sim, err := newSimulation(cfg, logger, registry)
	if err != nil {
		return err
	}
	defer sim.close()

	rep, err := sim.run(ctx)
	if err != nil {
		return err
	}
	return rep.print(os.Stdout)
}

func newSimulation(cfg *config.SimConfig, logger *slog.Logger, registry prometheus.Registerer) (*simulation, error) {
	var (
		kv      store.KV = store.NewMemoryKV()
		closeKV          = func() error { return nil }
	)
	if cfg.StorePath != "" {
		db, err := store.OpenSQLiteKV(cfg.StorePath)
		if err != nil {
			return nil, err
		}
		kv, closeKV = db, db.Close
	}

	l := newLedger()
	engineCfg := &clmm.Config{
		Store:         store.New(kv),
		Transferer:    l,
		VaultBalances: l,
		Registry:      registry,
		Logger:        logger.With("component", "clmm-engine"),
	}
	if cfg.Oracle != nil {
		src, validity, err := newOracle(cfg.Oracle)
		if err != nil {
			closeKV()
			return nil, fmt.Errorf("failed to create oracle: %w", err)
		}
		engineCfg.Oracle = src
		engineCfg.OracleValidity = validity
	}
	e, err := clmm.NewEngine(engineCfg)
	if err != nil {
		closeKV()
		return nil, err
	}

	return &simulation{
		cfg:    cfg,
		engine: e,
		ledger: l,
		logger: logger.With("component", "simulation"),
		funded: make(map[common.Address]bool),
		close:  closeKV,
	}, nil
}

func (s *simulation) advance(ts uint64) uint64 {
	s.now = max(s.now, ts)
	return s.now
}

func (s *simulation) fund(p *pool.Pool, holder common.Address) {
	if s.funded[holder] {
		return
	}
	s.ledger.mint(p.TokenMintA, holder, s.cfg.Funding)
	s.ledger.mint(p.TokenMintB, holder, s.cfg.Funding)
	s.funded[holder] = true
}

func (s *simulation) initializeArray(ctx context.Context, p *pool.Pool, start int32) error {
	created, err := s.engine.InitializeTickArray(ctx, p.ID, start)
	if err != nil {
		return err
	}
	if created {
		s.arrays = append(s.arrays, start)
	}
	return nil
}

func (s *simulation) ensureArrays(ctx context.Context, p *pool.Pool, ticks ...int32) error {
	for _, t := range ticks {
		if err := s.initializeArray(ctx, p, tick.StartTickIndex(t, p.TickSpacing, 0)); err != nil {
			return fmt.Errorf("tick array for tick %d: %w", t, err)
		}
	}
	return nil
}

func (s *simulation) run(ctx context.Context) (*report, error) {
	pc := s.cfg.Pool
	sqrtPrice, err := pricemath.PriceToSqrtPrice(pc.Price, pc.DecimalsA, pc.DecimalsB)
	if err != nil {
		return nil, fmt.Errorf("pool.price: %w", err)
	}
	p, err := s.engine.InitializePool(ctx, pool.Params{
		TokenMintA:      common.HexToAddress(pc.TokenMintA),
		TokenMintB:      common.HexToAddress(pc.TokenMintB),
		TickSpacing:     pc.TickSpacing,
		FeeRate:         pc.FeeRate,
		ProtocolFeeRate: pc.ProtocolFeeRate,
		SqrtPrice:       sqrtPrice,
	}, s.advance(pc.Timestamp))
	if err != nil {
		return nil, err
	}

	for offset := int32(-arraysAroundPrice); offset <= arraysAroundPrice; offset++ {
		start := tick.StartTickIndex(p.TickCurrentIndex, p.TickSpacing, offset)
		if !tick.IsValidStartTick(start, p.TickSpacing) {
			continue
		}
		if err := s.initializeArray(ctx, p, start); err != nil {
			return nil, err
		}
	}

	for i, r := range s.cfg.Rewards {
		mint := common.HexToAddress(r.Mint)
		authority := common.HexToAddress(r.Authority)
		if err := s.engine.InitializeReward(ctx, p.ID, i, mint, authority); err != nil {
			return nil, fmt.Errorf("rewards[%d]: %w", i, err)
		}
		emissions, err := pricemath.DecimalToQ64(r.EmissionsPerSecond)
		if err != nil {
			return nil, fmt.Errorf("rewards[%d].emissionsPerSecond: %w", i, err)
		}
		s.ledger.mint(mint, p.Vault(mint), r.VaultAmount)
		if err := s.engine.SetRewardEmissions(ctx, p.ID, i, authority, emissions, s.advance(r.Timestamp)); err != nil {
			return nil, fmt.Errorf("rewards[%d]: %w", i, err)
		}
	}

	rep := &report{decimalsA: pc.DecimalsA, decimalsB: pc.DecimalsB, fees: make(map[common.Hash][2]uint64)}
	for i, pcfg := range s.cfg.Positions {
		pos, err := s.openPosition(ctx, p, pcfg)
		if err != nil {
			return nil, fmt.Errorf("positions[%d]: %w", i, err)
		}
		rep.positions = append(rep.positions, pos)
	}

	for _, sc := range s.cfg.Swaps {
		rep.swaps = append(rep.swaps, s.swap(ctx, p, sc))
	}

	for i, pos := range rep.positions {
		transfers, err := s.engine.CollectFees(ctx, pos.ID, s.now)
		if err != nil {
			return nil, fmt.Errorf("collect fees of position %d: %w", i, err)
		}
		var collected [2]uint64
		for _, t := range transfers {
			if t.Token == p.TokenMintA {
				collected[0] += t.Amount
			} else {
				collected[1] += t.Amount
			}
		}
		rep.fees[pos.ID] = collected
		if rep.positions[i], err = s.engine.Position(pos.ID); err != nil {
			return nil, err
		}
	}

	if a := s.cfg.Auction; a != nil {
		direction := auction.Buy
		if a.Direction == "sell" {
			direction = auction.Sell
		}
		auc := auction.Auction{
			StartPrice: a.StartPrice,
			EndPrice:   a.EndPrice,
			StartTs:    a.StartTs,
			Duration:   a.Duration,
			Direction:  direction,
		}
		for _, at := range a.At {
			price, err := auction.CalculatePrice(auc, at, a.TickSize)
			if err != nil {
				return nil, fmt.Errorf("auction at %d: %w", at, err)
			}
			rep.auction = append(rep.auction, [2]uint64{at, price})
		}
	}

	if rep.pool, err = s.engine.Pool(p.ID); err != nil {
		return nil, err
	}
	slices.Sort(s.arrays)
	for _, start := range s.arrays {
		a, err := s.engine.TickArray(p.ID, start)
		if err != nil {
			return nil, err
		}
		rep.arrays = append(rep.arrays, [2]int32{start, int32(a.InitializedCount())})
	}
	if rep.ticks, err = s.engine.InitializedTicks(p.ID, s.arrays...); err != nil {
		return nil, err
	}
	return rep, nil
}

func (s *simulation) openPosition(ctx context.Context, p *pool.Pool, pc config.PositionConfig) (*position.Position, error) {
	owner := common.HexToAddress(pc.Owner)
	lower, upper := pc.TickLower, pc.TickUpper
	if pc.FullRange {
		lower, upper = tick.FullRangeIndexes(p.TickSpacing)
	}
	if err := s.ensureArrays(ctx, p, lower, upper); err != nil {
		return nil, err
	}
	s.fund(p, owner)

	pos, err := s.engine.OpenPosition(ctx, p.ID, owner, lower, upper)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.IncreaseLiquidity(ctx, clmm.IncreaseLiquidityParams{
		PositionID:      pos.ID,
		LiquidityAmount: uint128.From64(pc.Liquidity),
		TokenMaxA:       s.cfg.Funding,
		TokenMaxB:       s.cfg.Funding,
		Timestamp:       s.advance(pc.Timestamp),
	})
	if err != nil {
		return nil, err
	}
	return res.Position, nil
}

// swap runs one configured swap. A refused swap is part of the report, not
// a failure of the run.
func (s *simulation) swap(ctx context.Context, p *pool.Pool, sc config.SwapConfig) swapOutcome {
	trader := common.HexToAddress(sc.Trader)
	s.fund(p, trader)

	params := pool.SwapParams{
		Amount:                 sc.Amount,
		OtherAmountThreshold:   sc.Threshold,
		AmountSpecifiedIsInput: sc.ExactInput,
		AToB:                   sc.AToB,
	}
	if sc.LimitPrice.IsPositive() {
		limit, err := pricemath.PriceToSqrtPrice(sc.LimitPrice, s.cfg.Pool.DecimalsA, s.cfg.Pool.DecimalsB)
		if err != nil {
			return swapOutcome{cfg: sc, err: err}
		}
		params.SqrtPriceLimit = limit
	}

	res, err := s.engine.Swap(ctx, p.ID, trader, params, s.advance(sc.Timestamp))
	if err != nil {
		s.logger.Warn("Swap refused", "trader", trader, "amount", sc.Amount, "a_to_b", sc.AToB, "error", err)
	}
	return swapOutcome{cfg: sc, res: res, err: err}
}

func (r *report) print(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	p := r.pool
	fmt.Fprintln(w, "POOL\tPRICE\tTICK\tLIQUIDITY\tPROTOCOL FEE A\tPROTOCOL FEE B")
	fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%d\n",
		p.ID.Hex()[:10],
		pricemath.SqrtPriceToPrice(p.SqrtPrice, r.decimalsA, r.decimalsB).StringFixed(8),
		p.TickCurrentIndex,
		p.Liquidity,
		p.ProtocolFeeOwedA,
		p.ProtocolFeeOwedB,
	)

	fmt.Fprintln(w, "\nPOSITION\tLOWER\tUPPER\tLIQUIDITY\tFEES A\tFEES B\tREWARDS OWED")
	for _, pos := range r.positions {
		fees := r.fees[pos.ID]
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%d\t%d\t%d/%d/%d\n",
			pos.ID.Hex()[:10],
			pos.TickLowerIndex,
			pos.TickUpperIndex,
			pos.Liquidity,
			fees[0],
			fees[1],
			pos.RewardInfos[0].AmountOwed,
			pos.RewardInfos[1].AmountOwed,
			pos.RewardInfos[2].AmountOwed,
		)
	}

	fmt.Fprintln(w, "\nSWAP\tA TO B\tAMOUNT A\tAMOUNT B\tSTEPS\tTICKS CROSSED\tRESULT")
	for i, sw := range r.swaps {
		result := "ok"
		if sw.err != nil {
			result = sw.err.Error()
		}
		fmt.Fprintf(w, "%d\t%t\t%d\t%d\t%d\t%d\t%s\n",
			i, sw.cfg.AToB, sw.res.AmountA, sw.res.AmountB, sw.res.Steps, sw.res.TicksCrossed, result)
	}

	fmt.Fprintln(w, "\nTICK ARRAY\tINITIALIZED TICKS")
	for _, a := range r.arrays {
		fmt.Fprintf(w, "%d\t%d\n", a[0], a[1])
	}
	ticks := make([]string, len(r.ticks))
	for i, t := range r.ticks {
		ticks[i] = strconv.Itoa(int(t))
	}
	fmt.Fprintf(w, "ticks\t%s\n", strings.Join(ticks, " "))

	if len(r.auction) > 0 {
		fmt.Fprintln(w, "\nAUCTION AT\tPRICE")
		for _, a := range r.auction {
			fmt.Fprintf(w, "%d\t%d\n", a[0], a[1])
		}
	}
	return w.Flush()
}
