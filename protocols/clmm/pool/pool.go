package pool

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/fixedpoint"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/tickmath"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/reward"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/tick"
	"github.com/zeebo/blake3"
	"lukechampine.com/uint128"
)

const (
	// MAX_FEE_RATE is 6% in hundredths of a basis point.
	MAX_FEE_RATE = 60_000
	// PROTOCOL_FEE_RATE_MUL_VALUE is the protocol fee rate denominator (basis
	// points of the swap fee).
	PROTOCOL_FEE_RATE_MUL_VALUE = 10_000
	// MAX_PROTOCOL_FEE_RATE is 25% of the swap fee.
	MAX_PROTOCOL_FEE_RATE = 2_500
)

var (
	ErrFeeRateMaxExceeded         = errors.New("fee rate exceeds maximum")
	ErrProtocolFeeRateMaxExceeded = errors.New("protocol fee rate exceeds maximum")
	ErrInvalidTokenMintOrder      = errors.New("token mint a must sort before token mint b")
	ErrInvalidTimestamp           = errors.New("timestamp is before the last reward update")
	ErrLiquidityZero              = errors.New("liquidity amount must be greater than zero")
)

// Params are the immutable settings of a new pool plus its initial price.
type Params struct {
	TokenMintA      common.Address
	TokenMintB      common.Address
	TickSpacing     uint16
	FeeRate         uint16
	ProtocolFeeRate uint16
	SqrtPrice       uint128.Uint128
}

// Pool is the global accounting state of one concentrated-liquidity pool.
//
// TickCurrentIndex always names the tick whose price range contains
// SqrtPrice, and Liquidity is the sum of LiquidityNet over every tick at or
// below it.
type Pool struct {
	ID              common.Hash    `json:"id"`
	TokenMintA      common.Address `json:"tokenMintA"`
	TokenMintB      common.Address `json:"tokenMintB"`
	TickSpacing     uint16         `json:"tickSpacing"`
	FeeRate         uint16         `json:"feeRate"`
	ProtocolFeeRate uint16         `json:"protocolFeeRate"`

	Liquidity        uint128.Uint128   `json:"liquidity"`
	SqrtPrice        uint128.Uint128   `json:"sqrtPrice"`
	TickCurrentIndex int32             `json:"tickCurrentIndex"`
	FeeGrowthGlobalA fixedpoint.Growth `json:"feeGrowthGlobalA"`
	FeeGrowthGlobalB fixedpoint.Growth `json:"feeGrowthGlobalB"`
	ProtocolFeeOwedA uint64            `json:"protocolFeeOwedA"`
	ProtocolFeeOwedB uint64            `json:"protocolFeeOwedB"`

	RewardInfos                reward.Infos `json:"rewardInfos"`
	RewardLastUpdatedTimestamp uint64       `json:"rewardLastUpdatedTimestamp"`

	// PositionNonce numbers the positions opened in this pool.
	PositionNonce uint64 `json:"positionNonce"`
}

// NewID derives a pool identity from its token pair and tick spacing.
func NewID(tokenMintA, tokenMintB common.Address, tickSpacing uint16) common.Hash {
	h := blake3.New()
	_, _ = h.Write([]byte("clmm/pool"))
	_, _ = h.Write(tokenMintA.Bytes())
	_, _ = h.Write(tokenMintB.Bytes())
	_, _ = h.Write([]byte{byte(tickSpacing >> 8), byte(tickSpacing)})
	return common.BytesToHash(h.Sum(nil))
}

// Vault is the address holding the pool's balance of mint.
func (p *Pool) Vault(mint common.Address) common.Address {
	h := blake3.New()
	_, _ = h.Write([]byte("clmm/vault"))
	_, _ = h.Write(p.ID.Bytes())
	_, _ = h.Write(mint.Bytes())
	return common.BytesToAddress(h.Sum(nil))
}

func (p Params) validate() error {
	if bytes.Compare(p.TokenMintA.Bytes(), p.TokenMintB.Bytes()) >= 0 {
		return ErrInvalidTokenMintOrder
	}
	if p.TickSpacing == 0 {
		return tick.ErrInvalidTickSpacing
	}
	if p.FeeRate > MAX_FEE_RATE {
		return ErrFeeRateMaxExceeded
	}
	if p.ProtocolFeeRate > MAX_PROTOCOL_FEE_RATE {
		return ErrProtocolFeeRateMaxExceeded
	}
	if p.SqrtPrice.Cmp(tickmath.MIN_SQRT_PRICE) < 0 || p.SqrtPrice.Cmp(tickmath.MAX_SQRT_PRICE) > 0 {
		return tickmath.ErrSqrtPriceOutOfBounds
	}
	return nil
}

// New creates an empty pool at the given price. timestamp seeds the reward
// clock.
func New(params Params, timestamp uint64) (*Pool, error) {
	if err := params.validate(); err != nil {
		return nil, fmt.Errorf("invalid pool params: %w", err)
	}
	tickCurrentIndex, err := tickmath.TickIndexFromSqrtPrice(params.SqrtPrice)
	if err != nil {
		return nil, err
	}
	return &Pool{
		ID:                         NewID(params.TokenMintA, params.TokenMintB, params.TickSpacing),
		TokenMintA:                 params.TokenMintA,
		TokenMintB:                 params.TokenMintB,
		TickSpacing:                params.TickSpacing,
		FeeRate:                    params.FeeRate,
		ProtocolFeeRate:            params.ProtocolFeeRate,
		SqrtPrice:                  params.SqrtPrice,
		TickCurrentIndex:           tickCurrentIndex,
		RewardLastUpdatedTimestamp: timestamp,
	}, nil
}

// UpdateRewardsAndLiquidity applies the pool side of a liquidity change.
func (p *Pool) UpdateRewardsAndLiquidity(rewardInfos reward.Infos, liquidity uint128.Uint128, timestamp uint64) {
	p.UpdateRewards(rewardInfos, timestamp)
	p.Liquidity = liquidity
}

// UpdateRewards stores accrued reward growth and advances the reward clock.
func (p *Pool) UpdateRewards(rewardInfos reward.Infos, timestamp uint64) {
	p.RewardInfos = rewardInfos
	p.RewardLastUpdatedTimestamp = timestamp
}

// SetFeeRate changes the swap fee rate.
func (p *Pool) SetFeeRate(feeRate uint16) error {
	if feeRate > MAX_FEE_RATE {
		return ErrFeeRateMaxExceeded
	}
	p.FeeRate = feeRate
	return nil
}

// SetProtocolFeeRate changes the protocol's share of the swap fee.
func (p *Pool) SetProtocolFeeRate(protocolFeeRate uint16) error {
	if protocolFeeRate > MAX_PROTOCOL_FEE_RATE {
		return ErrProtocolFeeRateMaxExceeded
	}
	p.ProtocolFeeRate = protocolFeeRate
	return nil
}

// CollectProtocolFees returns the protocol fees owed and resets them.
func (p *Pool) CollectProtocolFees() (uint64, uint64) {
	a, b := p.ProtocolFeeOwedA, p.ProtocolFeeOwedB
	p.ProtocolFeeOwedA, p.ProtocolFeeOwedB = 0, 0
	return a, b
}
