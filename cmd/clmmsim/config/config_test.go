package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `
funding: 1000000000
pool:
  tokenMintA: "0x1000000000000000000000000000000000000001"
  tokenMintB: "0x2000000000000000000000000000000000000002"
  decimalsA: 9
  decimalsB: 6
  tickSpacing: 64
  feeRate: 3000
  price: "101.5"
  timestamp: 1000
positions:
  - owner: "0x3000000000000000000000000000000000000003"
    fullRange: true
    liquidity: 1000000
swaps:
  - trader: "0x4000000000000000000000000000000000000004"
    amount: 5000
    exactInput: true
    aToB: true
    limitPrice: 90
auction:
  startPrice: 100
  endPrice: 200
  duration: 100
  direction: buy
  at: [0, 50, 100]
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(validDoc))
	require.NoError(t, err)

	assert.Equal(t, uint64(1_000_000_000), cfg.Funding)
	assert.True(t, decimal.RequireFromString("101.5").Equal(cfg.Pool.Price))
	assert.Equal(t, uint16(64), cfg.Pool.TickSpacing)
	require.Len(t, cfg.Positions, 1)
	assert.True(t, cfg.Positions[0].FullRange)
	require.Len(t, cfg.Swaps, 1)
	assert.True(t, decimal.NewFromInt(90).Equal(cfg.Swaps[0].LimitPrice))
	require.NotNil(t, cfg.Auction)
	assert.Equal(t, []uint64{0, 50, 100}, cfg.Auction.At)
	assert.Nil(t, cfg.Oracle)
}

func TestParse_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
		err  string
	}{
		{
			name: "bad mint",
			doc:  "pool: {tokenMintA: nope, tokenMintB: \"0x2000000000000000000000000000000000000002\", tickSpacing: 1, price: 1}",
			err:  "pool.tokenMintA",
		},
		{
			name: "zero tick spacing",
			doc:  "pool: {tokenMintA: \"0x1000000000000000000000000000000000000001\", tokenMintB: \"0x2000000000000000000000000000000000000002\", price: 1}",
			err:  "tickSpacing",
		},
		{
			name: "no price",
			doc:  "pool: {tokenMintA: \"0x1000000000000000000000000000000000000001\", tokenMintB: \"0x2000000000000000000000000000000000000002\", tickSpacing: 1}",
			err:  "pool.price",
		},
		{
			name: "unknown oracle",
			doc:  validDoc + "oracle: {kind: pyth, maxDelay: 10}\n",
			err:  "oracle.kind",
		},
		{
			name: "json oracle without document",
			doc:  validDoc + "oracle: {kind: json, maxDelay: 10}\n",
			err:  "oracle.document",
		},
		{
			name: "oracle without max delay",
			doc:  validDoc + "oracle: {kind: fixed, price: 1}\n",
			err:  "oracle.maxDelay",
		},
		{
			name: "malformed yaml",
			doc:  "pool: [",
			err:  "failed to parse config",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validDoc), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint8(9), cfg.Pool.DecimalsA)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
