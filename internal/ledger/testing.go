package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Seed is a test helper that registers an address and sets its balance when
// using the in-memory ledger.
func Seed(l Ledger, addr common.Address, balance *big.Int) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.registered[addr] = true
		mem.balances[addr] = new(big.Int).Set(balance)
	}
}
