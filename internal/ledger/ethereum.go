package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ABI of the HydrogenCredits contract, reduced to the functions this
// service calls.
const hydrogenCreditsABI = `[
  {"inputs":[{"internalType":"address","name":"","type":"address"}],"name":"registeredUsers","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"address","name":"user","type":"address"}],"name":"registerUser","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"internalType":"address","name":"user","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"creditUser","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"internalType":"address","name":"from","type":"address"},{"internalType":"address","name":"to","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"transferTokens","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"internalType":"address","name":"user","type":"address"}],"name":"getBalance","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

// EthereumLedger talks to the HydrogenCredits contract. All mutating calls
// are signed with the contract owner's key and wait for the transaction to
// be mined, bounded by the configured timeout.
type EthereumLedger struct {
	client   *ethclient.Client
	contract *bind.BoundContract
	opts     *bind.TransactOpts
	timeout  time.Duration
	logger   *slog.Logger

	// Serializes transactions so nonce assignment stays monotonic.
	mu sync.Mutex
}

// NewEthereum binds the HydrogenCredits contract at contractAddr using the
// owner's hex-encoded private key for signing.
func NewEthereum(ctx context.Context, client *ethclient.Client, contractAddr, ownerKeyHex string, timeout time.Duration, logger *slog.Logger) (*EthereumLedger, error) {
	if !common.IsHexAddress(contractAddr) {
		return nil, fmt.Errorf("invalid contract address %q", contractAddr)
	}

	parsed, err := abi.JSON(strings.NewReader(hydrogenCreditsABI))
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(ownerKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse owner key: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("query chain id: %w", err)
	}

	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}

	contract := bind.NewBoundContract(common.HexToAddress(contractAddr), parsed, client, client, client)

	return &EthereumLedger{
		client:   client,
		contract: contract,
		opts:     opts,
		timeout:  timeout,
		logger:   logger,
	}, nil
}

// IsRegistered queries the contract's registeredUsers mapping.
func (l *EthereumLedger) IsRegistered(ctx context.Context, addr common.Address) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var out []interface{}
	if err := l.contract.Call(&bind.CallOpts{Context: ctx}, &out, "registeredUsers", addr); err != nil {
		return false, l.classify("registeredUsers", err)
	}
	registered, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("%w: unexpected registeredUsers result", ErrUnavailable)
	}
	return registered, nil
}

// Register submits registerUser and waits for confirmation.
func (l *EthereumLedger) Register(ctx context.Context, addr common.Address) error {
	return l.transact(ctx, "registerUser", addr)
}

// Credit submits creditUser and waits for confirmation.
func (l *EthereumLedger) Credit(ctx context.Context, addr common.Address, amount *big.Int) error {
	return l.transact(ctx, "creditUser", addr, amount)
}

// Transfer submits transferTokens and waits for confirmation.
func (l *EthereumLedger) Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	return l.transact(ctx, "transferTokens", from, to, amount)
}

// BalanceOf reads the contract balance for the address.
func (l *EthereumLedger) BalanceOf(ctx context.Context, addr common.Address) (*big.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var out []interface{}
	if err := l.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getBalance", addr); err != nil {
		return nil, l.classify("getBalance", err)
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected getBalance result", ErrUnavailable)
	}
	return balance, nil
}

func (l *EthereumLedger) transact(ctx context.Context, method string, args ...interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	l.mu.Lock()
	opts := *l.opts
	opts.Context = ctx
	tx, err := l.contract.Transact(&opts, method, args...)
	l.mu.Unlock()
	if err != nil {
		return l.classify(method, err)
	}

	receipt, err := bind.WaitMined(ctx, l.client, tx)
	if err != nil {
		return l.classify(method, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		l.logger.Warn("ledger transaction reverted",
			slog.String("method", method),
			slog.String("tx", tx.Hash().Hex()),
		)
		return fmt.Errorf("%w: %s reverted", ErrRejected, method)
	}

	l.logger.Info("ledger transaction confirmed",
		slog.String("method", method),
		slog.String("tx", tx.Hash().Hex()),
		slog.Uint64("block", receipt.BlockNumber.Uint64()),
	)
	return nil
}

// classify maps raw RPC failures onto the two sentinel errors the rest of
// the system distinguishes: explicit declines versus everything else.
func (l *EthereumLedger) classify(method string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s timed out", ErrUnavailable, method)
	}
	if strings.Contains(err.Error(), "execution reverted") || strings.Contains(err.Error(), "revert") {
		return fmt.Errorf("%w: %s: %v", ErrRejected, method, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, method, err)
}
