package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

type inMemoryLedger struct {
	mu         sync.Mutex
	registered map[common.Address]bool
	balances   map[common.Address]*big.Int
}

// NewInMemory creates a concurrency-safe in-memory ledger mirroring the
// HydrogenCredits contract's rules. Used in development mode and unit tests.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		registered: make(map[common.Address]bool),
		balances:   make(map[common.Address]*big.Int),
	}
}

func (l *inMemoryLedger) IsRegistered(_ context.Context, addr common.Address) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.registered[addr], nil
}

func (l *inMemoryLedger) Register(_ context.Context, addr common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.registered[addr] {
		return fmt.Errorf("%w: already registered", ErrRejected)
	}
	l.registered[addr] = true
	l.balances[addr] = big.NewInt(0)
	return nil
}

func (l *inMemoryLedger) Credit(_ context.Context, addr common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrRejected)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.registered[addr] {
		return fmt.Errorf("%w: address not registered", ErrRejected)
	}
	l.balances[addr] = new(big.Int).Add(l.balances[addr], amount)
	return nil
}

func (l *inMemoryLedger) Transfer(_ context.Context, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrRejected)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.registered[from] || !l.registered[to] {
		return fmt.Errorf("%w: address not registered", ErrRejected)
	}
	if l.balances[from].Cmp(amount) < 0 {
		return fmt.Errorf("%w: insufficient balance", ErrRejected)
	}

	l.balances[from] = new(big.Int).Sub(l.balances[from], amount)
	l.balances[to] = new(big.Int).Add(l.balances[to], amount)
	return nil
}

func (l *inMemoryLedger) BalanceOf(_ context.Context, addr common.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	balance, ok := l.balances[addr]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(balance), nil
}
