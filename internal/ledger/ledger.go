package ledger

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrUnavailable indicates the ledger could not be reached or did not
	// confirm within the configured timeout. The outcome of an in-flight
	// mutation is unknown to the caller.
	ErrUnavailable = errors.New("ledger unavailable")

	// ErrRejected indicates the ledger explicitly declined the operation
	// (reverted transaction, unregistered address, insufficient balance,
	// non-positive amount, duplicate registration).
	ErrRejected = errors.New("ledger rejected")
)

// Ledger is the external settlement system holding credit balances per
// address. Amounts are whole ledger units (18 decimal places); scaling from
// human-entered quantities happens in the settlement gateway. The ledger is
// authoritative for balances and registration; nothing here is cached.
type Ledger interface {
	IsRegistered(ctx context.Context, addr common.Address) (bool, error)
	Register(ctx context.Context, addr common.Address) error
	Credit(ctx context.Context, addr common.Address, amount *big.Int) error
	Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error
	BalanceOf(ctx context.Context, addr common.Address) (*big.Int, error)
}
