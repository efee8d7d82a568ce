package oracle

import (
	"bytes"
	"fmt"

	sdkmath "cosmossdk.io/math"
	bin "github.com/gagliardetto/binary"
)

// PriceAccount is the Borsh layout of a binary feed account. The real price
// is Price * 10^Exponent.
type PriceAccount struct {
	Price         int64
	Confidence    uint64
	Exponent      int32
	PublishTime   int64
	NumPublishers uint32
}

// EncodePriceAccount serializes an account the way BorshFeed reads it.
func EncodePriceAccount(a PriceAccount) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(&a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BorshFeed reads a price from the raw data of a binary feed account.
type BorshFeed struct {
	MinPublishers uint32

	data []byte
}

// Update replaces the account data the feed reads from.
func (f *BorshFeed) Update(data []byte) {
	f.data = append([]byte(nil), data...)
}

func (f *BorshFeed) PriceData(now int64) (PriceData, error) {
	var acc PriceAccount
	if err := bin.NewBorshDecoder(f.data).Decode(&acc); err != nil {
		return PriceData{}, fmt.Errorf("%w: %w", ErrMalformedFeed, err)
	}
	if acc.Exponent < -18 || acc.Exponent > 18 {
		return PriceData{}, fmt.Errorf("%w: exponent %d", ErrMalformedFeed, acc.Exponent)
	}

	price, err := toPrecision(scale(sdkmath.NewInt(acc.Price), acc.Exponent))
	if err != nil {
		return PriceData{}, err
	}
	conf, err := toPrecision(scale(sdkmath.NewIntFromUint64(acc.Confidence), acc.Exponent))
	if err != nil {
		return PriceData{}, err
	}

	return PriceData{
		Price:                   price,
		Confidence:              uint64(conf),
		Delay:                   now - acc.PublishTime,
		HasSufficientDataPoints: acc.NumPublishers >= f.MinPublishers,
	}, nil
}

func (*BorshFeed) kind() string { return "borsh" }

// scale returns v * 10^exp.
func scale(v sdkmath.Int, exp int32) sdkmath.LegacyDec {
	d := sdkmath.LegacyNewDecFromInt(v)
	if exp >= 0 {
		return d.Mul(sdkmath.LegacyNewDec(10).Power(uint64(exp)))
	}
	return d.Quo(sdkmath.LegacyNewDec(10).Power(uint64(-exp)))
}
