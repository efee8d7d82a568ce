package clmm

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/normalfinance/normal-v1-stellar-sub001/oracle"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm/store"
	"github.com/prometheus/client_golang/prometheus"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Transfer moves Amount of Token from one holder to another.
type Transfer struct {
	Token  common.Address `json:"token"`
	From   common.Address `json:"from"`
	To     common.Address `json:"to"`
	Amount uint64         `json:"amount"`
}

// Transferer executes token transfers once the accounting they settle has
// been committed.
type Transferer interface {
	Transfer(ctx context.Context, t Transfer) error
}

// VaultBalances reports token balances held by pool vaults.
type VaultBalances interface {
	Balance(ctx context.Context, token, holder common.Address) (uint64, error)
}

// Config holds the engine's collaborators.
type Config struct {
	Store         *store.Store
	Transferer    Transferer
	VaultBalances VaultBalances
	Registry      prometheus.Registerer
	Logger        Logger

	// Oracle is optional. When set, swaps are refused unless its reading
	// passes OracleValidity.
	Oracle         oracle.Source
	OracleValidity oracle.Validity
}

func (c *Config) validate() error {
	if c.Store == nil {
		return errors.New("config: Store cannot be nil")
	}
	if c.Transferer == nil {
		return errors.New("config: Transferer cannot be nil")
	}
	if c.VaultBalances == nil {
		return errors.New("config: VaultBalances cannot be nil")
	}
	if c.Registry == nil {
		return errors.New("config: Registry cannot be nil")
	}
	if c.Logger == nil {
		return errors.New("config: Logger cannot be nil")
	}
	if c.Oracle != nil && c.OracleValidity.MaxDelay <= 0 {
		return errors.New("config: OracleValidity.MaxDelay must be positive when an Oracle is set")
	}
	return nil
}
