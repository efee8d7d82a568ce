// Package oracle reads external price feeds into a uniform PriceData record
// and decides whether a reading is fit to trade against.
package oracle

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// PRICE_PRECISION is the fixed-point scale of PriceData prices and
// confidences.
const PRICE_PRECISION = 1_000_000

var (
	ErrOracleInvalid   = errors.New("oracle price invalid")
	ErrMalformedFeed   = errors.New("malformed oracle feed")
	ErrUnsupportedFeed = errors.New("unsupported oracle feed")
)

var pricePrecision = sdkmath.LegacyNewDec(PRICE_PRECISION)

// PriceData is one price reading. Price and Confidence are scaled by
// PRICE_PRECISION; Delay is the age of the reading in seconds.
type PriceData struct {
	Price                   int64  `json:"price"`
	Confidence              uint64 `json:"confidence"`
	Delay                   int64  `json:"delay"`
	HasSufficientDataPoints bool   `json:"hasSufficientDataPoints"`
}

// Source is a price feed. Its implementations are Fixed, JSONFeed and
// BorshFeed.
type Source interface {
	PriceData(now int64) (PriceData, error)
	kind() string
}

// Kind names the variant of s.
func Kind(s Source) string {
	if s == nil {
		return "none"
	}
	return s.kind()
}

// Validity bounds a usable reading.
type Validity struct {
	// MaxDelay is the oldest acceptable reading, in seconds.
	MaxDelay int64
	// MaxConfidenceRatio bounds Confidence/Price. Zero disables the check.
	MaxConfidenceRatio sdkmath.LegacyDec
}

// Check reports why pd cannot be used, wrapping ErrOracleInvalid.
func (v Validity) Check(pd PriceData) error {
	switch {
	case pd.Price <= 0:
		return fmt.Errorf("%w: non-positive price %d", ErrOracleInvalid, pd.Price)
	case pd.Delay < 0:
		return fmt.Errorf("%w: reading is from the future (delay %d)", ErrOracleInvalid, pd.Delay)
	case pd.Delay > v.MaxDelay:
		return fmt.Errorf("%w: stale by %ds (max %ds)", ErrOracleInvalid, pd.Delay, v.MaxDelay)
	case !pd.HasSufficientDataPoints:
		return fmt.Errorf("%w: insufficient data points", ErrOracleInvalid)
	}

	if v.MaxConfidenceRatio.IsNil() || v.MaxConfidenceRatio.IsZero() {
		return nil
	}
	ratio := sdkmath.LegacyNewDecFromInt(sdkmath.NewIntFromUint64(pd.Confidence)).
		Quo(sdkmath.LegacyNewDec(pd.Price))
	if ratio.GT(v.MaxConfidenceRatio) {
		return fmt.Errorf("%w: confidence ratio %s exceeds %s", ErrOracleInvalid, ratio, v.MaxConfidenceRatio)
	}
	return nil
}

// toPrecision scales d, expressed in whole units, to PRICE_PRECISION.
func toPrecision(d sdkmath.LegacyDec) (int64, error) {
	scaled := d.Mul(pricePrecision).TruncateInt()
	if !scaled.IsInt64() {
		return 0, fmt.Errorf("%w: price %s out of range", ErrMalformedFeed, d)
	}
	return scaled.Int64(), nil
}

// Fixed always returns the same reading with no delay.
type Fixed struct {
	Data PriceData
}

func (f Fixed) PriceData(int64) (PriceData, error) {
	pd := f.Data
	pd.Delay = 0
	return pd, nil
}

func (Fixed) kind() string { return "fixed" }
