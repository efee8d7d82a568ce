package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/normalfinance/normal-v1-stellar-sub001/protocols/clmm"
)

// ledger is an in-memory token ledger standing in for the host's token
// program.
type ledger struct {
	mu       sync.Mutex
	balances map[common.Address]map[common.Address]uint64
}

func newLedger() *ledger {
	return &ledger{balances: make(map[common.Address]map[common.Address]uint64)}
}

func (l *ledger) mint(token, holder common.Address, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[token] == nil {
		l.balances[token] = make(map[common.Address]uint64)
	}
	l.balances[token][holder] += amount
}

func (l *ledger) Balance(_ context.Context, token, holder common.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[token][holder], nil
}

func (l *ledger) Transfer(_ context.Context, t clmm.Transfer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	from := l.balances[t.Token][t.From]
	if from < t.Amount {
		return fmt.Errorf("insufficient %s balance of %s: have %d, need %d", t.Token, t.From, from, t.Amount)
	}
	if l.balances[t.Token] == nil {
		l.balances[t.Token] = make(map[common.Address]uint64)
	}
	l.balances[t.Token][t.From] = from - t.Amount
	l.balances[t.Token][t.To] += t.Amount
	return nil
}
