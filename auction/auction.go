// Package auction prices time-decaying auctions that move linearly from a
// start price to an end price.
package auction

import (
	"errors"
	"fmt"
	"math"

	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/calculator/bitmath"
	"lukechampine.com/uint128"
)

var (
	ErrInvalidAuction    = errors.New("auction prices move against its direction")
	ErrAuctionNotStarted = errors.New("auction has not started")
	ErrPriceOverflow     = errors.New("auction price overflow")
)

// Direction is the side the auction fills for.
type Direction uint8

const (
	// Buy auctions start low and rise toward EndPrice.
	Buy Direction = iota
	// Sell auctions start high and fall toward EndPrice.
	Sell
)

func (d Direction) String() string {
	switch d {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// Auction is a linear price schedule over [StartTs, StartTs+Duration].
type Auction struct {
	StartPrice uint64    `yaml:"startPrice" json:"startPrice"`
	EndPrice   uint64    `yaml:"endPrice" json:"endPrice"`
	StartTs    uint64    `yaml:"startTs" json:"startTs"`
	Duration   uint64    `yaml:"duration" json:"duration"`
	Direction  Direction `yaml:"direction" json:"direction"`
}

// CalculatePrice interpolates the auction price at now and snaps it to
// tickSize. Time past the end of the auction prices at EndPrice.
func CalculatePrice(a Auction, now, tickSize uint64) (uint64, error) {
	if a.Duration == 0 {
		return StandardizePrice(a.EndPrice, tickSize, a.Direction)
	}
	if now < a.StartTs {
		return 0, ErrAuctionNotStarted
	}
	elapsed := min(now-a.StartTs, a.Duration)

	var delta uint64
	switch a.Direction {
	case Buy:
		if a.EndPrice < a.StartPrice {
			return 0, ErrInvalidAuction
		}
		delta = a.EndPrice - a.StartPrice
	case Sell:
		if a.EndPrice > a.StartPrice {
			return 0, ErrInvalidAuction
		}
		delta = a.StartPrice - a.EndPrice
	default:
		return 0, fmt.Errorf("%w: %s", ErrInvalidAuction, a.Direction)
	}

	// delta*elapsed/duration <= delta, so it always fits in a uint64.
	moved, err := bitmath.CheckedMulDiv(uint128.From64(delta), uint128.From64(elapsed), uint128.From64(a.Duration))
	if err != nil {
		return 0, err
	}

	price := a.StartPrice - moved.Lo
	if a.Direction == Buy {
		price = a.StartPrice + moved.Lo
	}
	return StandardizePrice(price, tickSize, a.Direction)
}

// StandardizePrice snaps price to a multiple of tickSize: down for Buy, up
// for Sell. A zero tickSize leaves the price as is.
func StandardizePrice(price, tickSize uint64, direction Direction) (uint64, error) {
	if tickSize == 0 {
		return price, nil
	}
	rem := price % tickSize
	if rem == 0 {
		return price, nil
	}

	switch direction {
	case Buy:
		return price - rem, nil
	case Sell:
		step := tickSize - rem
		if price > math.MaxUint64-step {
			return 0, ErrPriceOverflow
		}
		return price + step, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrInvalidAuction, direction)
	}
}
