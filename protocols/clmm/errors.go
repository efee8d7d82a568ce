package clmm

import (
	"errors"

	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/pool"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/store"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/tick"
)

var (
	ErrPoolNotFound     = errors.New("pool not found")
	ErrPoolExists       = errors.New("pool already exists")
	ErrPositionNotFound = errors.New("position not found")
	// ErrTransferFailed is returned when the accounting of an operation was
	// committed but one of its transfers could not be executed.
	ErrTransferFailed = errors.New("transfer failed after commit")
)

// IsInvariantViolation reports whether err means the stored state or the
// arrays supplied to an operation broke an internal invariant, as opposed to
// a request that was simply refused.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, tick.ErrLiquidityNetError) ||
		errors.Is(err, tick.ErrTickArraySequenceInvalidIndex) ||
		errors.Is(err, pool.ErrInvalidTimestamp) ||
		errors.Is(err, store.ErrCorruptRecord)
}
