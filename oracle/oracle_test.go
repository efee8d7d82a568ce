package oracle

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidity_Check(t *testing.T) {
	v := Validity{MaxDelay: 30, MaxConfidenceRatio: sdkmath.LegacyMustNewDecFromStr("0.02")}
	good := PriceData{Price: 100 * PRICE_PRECISION, Confidence: PRICE_PRECISION, Delay: 5, HasSufficientDataPoints: true}

	require.NoError(t, v.Check(good))

	testCases := []struct {
		name   string
		mutate func(*PriceData)
	}{
		{"zero price", func(pd *PriceData) { pd.Price = 0 }},
		{"negative price", func(pd *PriceData) { pd.Price = -1 }},
		{"future reading", func(pd *PriceData) { pd.Delay = -1 }},
		{"stale reading", func(pd *PriceData) { pd.Delay = 31 }},
		{"too few data points", func(pd *PriceData) { pd.HasSufficientDataPoints = false }},
		{"confidence band too wide", func(pd *PriceData) { pd.Confidence = 3 * PRICE_PRECISION }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pd := good
			tc.mutate(&pd)
			assert.ErrorIs(t, v.Check(pd), ErrOracleInvalid)
		})
	}

	t.Run("confidence check disabled", func(t *testing.T) {
		pd := good
		pd.Confidence = 1_000 * PRICE_PRECISION
		assert.NoError(t, Validity{MaxDelay: 30}.Check(pd))
	})
}

func TestFixed(t *testing.T) {
	src := Fixed{Data: PriceData{Price: 42, Delay: 99, HasSufficientDataPoints: true}}
	pd, err := src.PriceData(1_000)
	require.NoError(t, err)
	assert.Equal(t, int64(42), pd.Price)
	assert.Zero(t, pd.Delay)
	assert.Equal(t, "fixed", Kind(src))
	assert.Equal(t, "none", Kind(nil))
}

func TestJSONFeed(t *testing.T) {
	feed := &JSONFeed{
		PricePath:       "data.price",
		ConfidencePath:  "data.conf",
		PublishTimePath: "data.ts",
		PublishersPath:  "data.publishers",
		MinPublishers:   3,
	}

	_, err := feed.PriceData(0)
	assert.ErrorIs(t, err, ErrMalformedFeed)
	assert.ErrorIs(t, feed.Update([]byte("{not json")), ErrMalformedFeed)

	require.NoError(t, feed.Update([]byte(`{"data":{"price":"101.25","conf":0.5,"ts":1000,"publishers":4}}`)))
	pd, err := feed.PriceData(1_010)
	require.NoError(t, err)
	assert.Equal(t, PriceData{
		Price:                   101_250_000,
		Confidence:              500_000,
		Delay:                   10,
		HasSufficientDataPoints: true,
	}, pd)
	assert.Equal(t, "json", Kind(feed))

	require.NoError(t, feed.Update([]byte(`{"data":{"price":"101.25","conf":"0.5","ts":1000,"publishers":2}}`)))
	pd, err = feed.PriceData(1_000)
	require.NoError(t, err)
	assert.False(t, pd.HasSufficientDataPoints)

	t.Run("missing field", func(t *testing.T) {
		f := *feed
		require.NoError(t, f.Update([]byte(`{"data":{"price":"1"}}`)))
		_, err := f.PriceData(0)
		assert.ErrorIs(t, err, ErrMalformedFeed)
	})

	t.Run("non-numeric price", func(t *testing.T) {
		f := *feed
		require.NoError(t, f.Update([]byte(`{"data":{"price":"abc","conf":"0","ts":1}}`)))
		_, err := f.PriceData(0)
		assert.ErrorIs(t, err, ErrMalformedFeed)
	})

	t.Run("negative confidence", func(t *testing.T) {
		f := *feed
		require.NoError(t, f.Update([]byte(`{"data":{"price":"1","conf":"-1","ts":1}}`)))
		_, err := f.PriceData(0)
		assert.ErrorIs(t, err, ErrMalformedFeed)
	})
}

func TestBorshFeed(t *testing.T) {
	data, err := EncodePriceAccount(PriceAccount{
		Price:         6_512_345_678,
		Confidence:    2_000_000,
		Exponent:      -8,
		PublishTime:   500,
		NumPublishers: 5,
	})
	require.NoError(t, err)

	feed := &BorshFeed{MinPublishers: 5}
	feed.Update(data)
	pd, err := feed.PriceData(503)
	require.NoError(t, err)
	assert.Equal(t, PriceData{
		Price:                   65_123_456,
		Confidence:              20_000,
		Delay:                   3,
		HasSufficientDataPoints: true,
	}, pd)
	assert.Equal(t, "borsh", Kind(feed))

	t.Run("positive exponent", func(t *testing.T) {
		data, err := EncodePriceAccount(PriceAccount{Price: 12, Exponent: 2, NumPublishers: 1})
		require.NoError(t, err)
		f := &BorshFeed{MinPublishers: 2}
		f.Update(data)
		pd, err := f.PriceData(0)
		require.NoError(t, err)
		assert.Equal(t, int64(1_200*PRICE_PRECISION), pd.Price)
		assert.False(t, pd.HasSufficientDataPoints)
	})

	t.Run("truncated account", func(t *testing.T) {
		f := &BorshFeed{}
		f.Update(data[:10])
		_, err := f.PriceData(0)
		assert.ErrorIs(t, err, ErrMalformedFeed)
	})

	t.Run("exponent out of range", func(t *testing.T) {
		data, err := EncodePriceAccount(PriceAccount{Price: 1, Exponent: 40})
		require.NoError(t, err)
		f := &BorshFeed{}
		f.Update(data)
		_, err = f.PriceData(0)
		assert.ErrorIs(t, err, ErrMalformedFeed)
	})

	t.Run("price out of range", func(t *testing.T) {
		data, err := EncodePriceAccount(PriceAccount{Price: 1 << 62, Exponent: 0})
		require.NoError(t, err)
		f := &BorshFeed{}
		f.Update(data)
		_, err = f.PriceData(0)
		assert.ErrorIs(t, err, ErrMalformedFeed)
	})
}
