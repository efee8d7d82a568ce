package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/normalfinance/normal-v1-stellar-sub001/cmd/clmmsim/config"
	"github.com/normalfinance/normal-v1-stellar-sub001/oracle"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOracle(t *testing.T) {
	dir := t.TempDir()

	t.Run("fixed", func(t *testing.T) {
		src, validity, err := newOracle(&config.OracleConfig{
			Kind:               "fixed",
			Price:              decimal.RequireFromString("101.25"),
			Confidence:         decimal.RequireFromString("0.5"),
			MaxDelay:           30,
			MaxConfidenceRatio: "0.01",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(30), validity.MaxDelay)
		assert.Equal(t, "0.010000000000000000", validity.MaxConfidenceRatio.String())

		pd, err := src.PriceData(0)
		require.NoError(t, err)
		assert.Equal(t, int64(101_250_000), pd.Price)
		assert.Equal(t, uint64(500_000), pd.Confidence)
		assert.NoError(t, validity.Check(pd))
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "feed.json")
		doc := `{"price":{"value":"42.5","conf":"0.01","time":990}}`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

		src, _, err := newOracle(&config.OracleConfig{
			Kind:            "json",
			Document:        path,
			PricePath:       "price.value",
			ConfidencePath:  "price.conf",
			PublishTimePath: "price.time",
			MaxDelay:        30,
		})
		require.NoError(t, err)

		pd, err := src.PriceData(1000)
		require.NoError(t, err)
		assert.Equal(t, int64(42_500_000), pd.Price)
		assert.Equal(t, int64(10), pd.Delay)
	})

	t.Run("borsh", func(t *testing.T) {
		account, err := oracle.EncodePriceAccount(oracle.PriceAccount{
			Price:         4_250,
			Confidence:    1,
			Exponent:      -2,
			PublishTime:   995,
			NumPublishers: 3,
		})
		require.NoError(t, err)
		path := filepath.Join(dir, "feed.bin")
		require.NoError(t, os.WriteFile(path, account, 0o600))

		src, _, err := newOracle(&config.OracleConfig{
			Kind:          "borsh",
			Document:      path,
			MinPublishers: 5,
			MaxDelay:      30,
		})
		require.NoError(t, err)

		pd, err := src.PriceData(1000)
		require.NoError(t, err)
		assert.Equal(t, int64(42_500_000), pd.Price)
		assert.Equal(t, uint64(10_000), pd.Confidence)
		assert.False(t, pd.HasSufficientDataPoints)
	})

	t.Run("bad ratio", func(t *testing.T) {
		_, _, err := newOracle(&config.OracleConfig{Kind: "fixed", MaxDelay: 1, MaxConfidenceRatio: "abc"})
		assert.ErrorContains(t, err, "maxConfidenceRatio")
	})

	t.Run("missing document", func(t *testing.T) {
		_, _, err := newOracle(&config.OracleConfig{Kind: "json", Document: filepath.Join(dir, "nope.json"), MaxDelay: 1})
		assert.Error(t, err)
	})
}
