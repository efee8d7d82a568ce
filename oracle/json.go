package oracle

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/tidwall/gjson"
)

// JSONFeed reads a price from the latest JSON document published by a feed.
// Prices are decimal strings or numbers in whole units; the publish time is
// in unix seconds.
type JSONFeed struct {
	PricePath       string
	ConfidencePath  string
	PublishTimePath string
	// PublishersPath is optional. When set, the reading needs at least
	// MinPublishers publishers to have sufficient data points.
	PublishersPath string
	MinPublishers  int64

	document []byte
}

// Update replaces the document the feed reads from.
func (f *JSONFeed) Update(document []byte) error {
	if !gjson.ValidBytes(document) {
		return fmt.Errorf("%w: invalid json", ErrMalformedFeed)
	}
	f.document = append([]byte(nil), document...)
	return nil
}

func (f *JSONFeed) PriceData(now int64) (PriceData, error) {
	if f.document == nil {
		return PriceData{}, fmt.Errorf("%w: no document", ErrMalformedFeed)
	}
	res := gjson.GetManyBytes(f.document, f.PricePath, f.ConfidencePath, f.PublishTimePath)
	for i, path := range []string{f.PricePath, f.ConfidencePath, f.PublishTimePath} {
		if !res[i].Exists() {
			return PriceData{}, fmt.Errorf("%w: missing %q", ErrMalformedFeed, path)
		}
	}

	price, err := decimalField(res[0])
	if err != nil {
		return PriceData{}, err
	}
	conf, err := decimalField(res[1])
	if err != nil {
		return PriceData{}, err
	}
	if conf < 0 {
		return PriceData{}, fmt.Errorf("%w: negative confidence", ErrMalformedFeed)
	}

	sufficient := true
	if f.PublishersPath != "" {
		sufficient = gjson.GetBytes(f.document, f.PublishersPath).Int() >= f.MinPublishers
	}

	return PriceData{
		Price:                   price,
		Confidence:              uint64(conf),
		Delay:                   now - res[2].Int(),
		HasSufficientDataPoints: sufficient,
	}, nil
}

func (*JSONFeed) kind() string { return "json" }

func decimalField(r gjson.Result) (int64, error) {
	raw := r.String()
	if r.Type == gjson.Number {
		raw = r.Raw
	}
	d, err := sdkmath.LegacyNewDecFromStr(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrMalformedFeed, raw, err)
	}
	return toPrecision(d)
}
