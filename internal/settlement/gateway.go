package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/h2ledger/h2ledger/internal/ledger"
	"github.com/h2ledger/h2ledger/internal/wallet"
)

var (
	// ErrInvalidAmount indicates a non-positive quantity was submitted. It
	// is returned before any ledger call is made.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrNotOwner indicates the caller tried to move credits out of a
	// wallet that is not derived from their own identity.
	ErrNotOwner = errors.New("not owner of source wallet")
)

// Gateway wraps the external ledger with registration-before-action
// semantics and quantity scaling. Every mutating path goes through
// EnsureRegistered so no call site can forget the register-then-act
// sequence.
type Gateway struct {
	ledger ledger.Ledger
	logger *slog.Logger
}

// NewGateway builds a settlement gateway over the given ledger backend.
func NewGateway(l ledger.Ledger, logger *slog.Logger) *Gateway {
	return &Gateway{ledger: l, logger: logger}
}

// EnsureRegistered makes the address usable on the ledger, registering it if
// needed. Idempotent: an already-registered address is a no-op. When the
// registration status cannot be read, registration is attempted anyway and
// an "already registered" decline is treated as success.
func (g *Gateway) EnsureRegistered(ctx context.Context, addr common.Address) error {
	registered, err := g.ledger.IsRegistered(ctx, addr)
	if err != nil {
		g.logger.Warn("registration status unknown, attempting registration",
			slog.String("address", addr.Hex()), slog.Any("error", err))
		if regErr := g.ledger.Register(ctx, addr); regErr != nil && !errors.Is(regErr, ledger.ErrRejected) {
			return regErr
		}
		return nil
	}
	if registered {
		return nil
	}
	return g.ledger.Register(ctx, addr)
}

// CreditProducer derives the producer's wallet from its identity key,
// ensures it is registered and credits the given quantity of hydrogen
// credits. Returns the resulting balance in human units.
func (g *Gateway) CreditProducer(ctx context.Context, identityKey string, kg decimal.Decimal) (decimal.Decimal, error) {
	w, err := wallet.Derive(identityKey)
	if err != nil {
		return decimal.Zero, fmt.Errorf("derive wallet: %w", err)
	}
	return g.CreditAddress(ctx, w.Address, kg)
}

// CreditAddress credits an explicit wallet address, registering it first if
// necessary.
func (g *Gateway) CreditAddress(ctx context.Context, addr common.Address, kg decimal.Decimal) (decimal.Decimal, error) {
	if err := g.EnsureRegistered(ctx, addr); err != nil {
		return decimal.Zero, err
	}
	if err := g.ledger.Credit(ctx, addr, toUnits(kg)); err != nil {
		return decimal.Zero, err
	}

	g.logger.Info("credits issued",
		slog.String("address", addr.Hex()),
		slog.String("amount_kg", kg.String()),
	)

	balance, err := g.ledger.BalanceOf(ctx, addr)
	if err != nil {
		return decimal.Zero, err
	}
	return fromUnits(balance), nil
}

// Transfer moves credits between two wallet addresses. The quantity is
// validated before any ledger call; balance sufficiency is delegated to the
// ledger, which is authoritative.
func (g *Gateway) Transfer(ctx context.Context, from, to common.Address, kg decimal.Decimal) error {
	if kg.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := g.EnsureRegistered(ctx, from); err != nil {
		return err
	}
	if err := g.EnsureRegistered(ctx, to); err != nil {
		return err
	}
	if err := g.ledger.Transfer(ctx, from, to, toUnits(kg)); err != nil {
		return err
	}

	g.logger.Info("credits transferred",
		slog.String("from", from.Hex()),
		slog.String("to", to.Hex()),
		slog.String("amount_kg", kg.String()),
	)
	return nil
}

// BalanceOf reads the current balance for an address in human units. Always
// a live ledger read; nothing is cached.
func (g *Gateway) BalanceOf(ctx context.Context, addr common.Address) (decimal.Decimal, error) {
	balance, err := g.ledger.BalanceOf(ctx, addr)
	if err != nil {
		return decimal.Zero, err
	}
	return fromUnits(balance), nil
}
