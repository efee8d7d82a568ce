package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// SimConfig describes one simulation run: a pool, the positions opened in
// it and the swaps traded against it, in order.
type SimConfig struct {
	// MetricsAddr, when set, keeps the process serving /metrics after the
	// run until it is interrupted.
	MetricsAddr string `yaml:"metricsAddr"`

	// StorePath, when set, keeps engine records in a SQLite database
	// instead of memory. The database must not already hold the pool.
	StorePath string `yaml:"storePath"`

	// Funding is the balance every owner and trader starts with in both
	// pool tokens.
	Funding uint64 `yaml:"funding"`

	Pool      PoolConfig       `yaml:"pool"`
	Rewards   []RewardConfig   `yaml:"rewards"`
	Positions []PositionConfig `yaml:"positions"`
	Swaps     []SwapConfig     `yaml:"swaps"`
	Auction   *AuctionConfig   `yaml:"auction"`
	Oracle    *OracleConfig    `yaml:"oracle"`
}

type PoolConfig struct {
	TokenMintA      string `yaml:"tokenMintA"`
	TokenMintB      string `yaml:"tokenMintB"`
	DecimalsA       uint8  `yaml:"decimalsA"`
	DecimalsB       uint8  `yaml:"decimalsB"`
	TickSpacing     uint16 `yaml:"tickSpacing"`
	FeeRate         uint16 `yaml:"feeRate"`
	ProtocolFeeRate uint16 `yaml:"protocolFeeRate"`
	// Price is the initial price of token A in token B.
	Price     decimal.Decimal `yaml:"price"`
	Timestamp uint64          `yaml:"timestamp"`
}

type RewardConfig struct {
	Mint      string `yaml:"mint"`
	Authority string `yaml:"authority"`
	// EmissionsPerSecond is in whole reward tokens.
	EmissionsPerSecond decimal.Decimal `yaml:"emissionsPerSecond"`
	VaultAmount        uint64          `yaml:"vaultAmount"`
	Timestamp          uint64          `yaml:"timestamp"`
}

type PositionConfig struct {
	Owner     string `yaml:"owner"`
	TickLower int32  `yaml:"tickLower"`
	TickUpper int32  `yaml:"tickUpper"`
	// FullRange overrides TickLower and TickUpper.
	FullRange bool   `yaml:"fullRange"`
	Liquidity uint64 `yaml:"liquidity"`
	Timestamp uint64 `yaml:"timestamp"`
}

type SwapConfig struct {
	Trader     string `yaml:"trader"`
	Amount     uint64 `yaml:"amount"`
	Threshold  uint64 `yaml:"threshold"`
	ExactInput bool   `yaml:"exactInput"`
	AToB       bool   `yaml:"aToB"`
	// LimitPrice is optional; zero means no limit.
	LimitPrice decimal.Decimal `yaml:"limitPrice"`
	Timestamp  uint64          `yaml:"timestamp"`
}

type AuctionConfig struct {
	StartPrice uint64 `yaml:"startPrice"`
	EndPrice   uint64 `yaml:"endPrice"`
	StartTs    uint64 `yaml:"startTs"`
	Duration   uint64 `yaml:"duration"`
	Direction  string `yaml:"direction"`
	TickSize   uint64 `yaml:"tickSize"`
	// At lists the times to price the auction at.
	At []uint64 `yaml:"at"`
}

type OracleConfig struct {
	// Kind is "fixed", "json" or "borsh".
	Kind string `yaml:"kind"`

	Price      decimal.Decimal `yaml:"price"`
	Confidence decimal.Decimal `yaml:"confidence"`

	// Document is the JSON file read by the json kind, or the encoded price
	// account read by the borsh kind.
	Document        string `yaml:"document"`
	PricePath       string `yaml:"pricePath"`
	ConfidencePath  string `yaml:"confidencePath"`
	PublishTimePath string `yaml:"publishTimePath"`
	PublishersPath  string `yaml:"publishersPath"`
	MinPublishers   uint32 `yaml:"minPublishers"`

	MaxDelay           int64  `yaml:"maxDelay"`
	MaxConfidenceRatio string `yaml:"maxConfidenceRatio"`
}

// LoadConfig reads and validates a simulation file.
func LoadConfig(path string) (*SimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a simulation document.
func Parse(data []byte) (*SimConfig, error) {
	var cfg SimConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func checkAddress(field, v string) error {
	if !common.IsHexAddress(v) {
		return fmt.Errorf("%s: %q is not a hex address", field, v)
	}
	return nil
}

func (c *SimConfig) validate() error {
	if err := checkAddress("pool.tokenMintA", c.Pool.TokenMintA); err != nil {
		return err
	}
	if err := checkAddress("pool.tokenMintB", c.Pool.TokenMintB); err != nil {
		return err
	}
	if c.Pool.TickSpacing == 0 {
		return errors.New("pool.tickSpacing must be greater than 0")
	}
	if !c.Pool.Price.IsPositive() {
		return errors.New("pool.price must be positive")
	}
	for i, r := range c.Rewards {
		if err := checkAddress(fmt.Sprintf("rewards[%d].mint", i), r.Mint); err != nil {
			return err
		}
		if err := checkAddress(fmt.Sprintf("rewards[%d].authority", i), r.Authority); err != nil {
			return err
		}
		if r.EmissionsPerSecond.IsNegative() {
			return fmt.Errorf("rewards[%d].emissionsPerSecond cannot be negative", i)
		}
	}
	for i, p := range c.Positions {
		if err := checkAddress(fmt.Sprintf("positions[%d].owner", i), p.Owner); err != nil {
			return err
		}
		if p.Liquidity == 0 {
			return fmt.Errorf("positions[%d].liquidity must be greater than 0", i)
		}
	}
	for i, s := range c.Swaps {
		if err := checkAddress(fmt.Sprintf("swaps[%d].trader", i), s.Trader); err != nil {
			return err
		}
		if s.LimitPrice.IsNegative() {
			return fmt.Errorf("swaps[%d].limitPrice cannot be negative", i)
		}
	}
	if a := c.Auction; a != nil && a.Direction != "buy" && a.Direction != "sell" {
		return fmt.Errorf("auction.direction must be buy or sell, got %q", a.Direction)
	}
	if o := c.Oracle; o != nil {
		switch o.Kind {
		case "fixed":
		case "json", "borsh":
			if o.Document == "" {
				return fmt.Errorf("oracle.document is required for the %s kind", o.Kind)
			}
		default:
			return fmt.Errorf("oracle.kind must be fixed, json or borsh, got %q", o.Kind)
		}
		if o.MaxDelay <= 0 {
			return errors.New("oracle.maxDelay must be greater than 0")
		}
	}
	return nil
}
