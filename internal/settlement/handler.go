package settlement

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/h2ledger/h2ledger/internal/ledger"
	"github.com/h2ledger/h2ledger/internal/wallet"
)

// Handler exposes wallet and settlement HTTP endpoints.
type Handler struct {
	gateway *Gateway
}

// NewHandler builds a settlement HTTP handler.
func NewHandler(gateway *Gateway) *Handler {
	return &Handler{gateway: gateway}
}

// Wallet returns the caller's derived wallet address and live balance.
func (h *Handler) Wallet(c *fiber.Ctx) error {
	pan, _ := c.Locals("pan").(string)
	if pan == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	w, err := wallet.Derive(pan)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "wallet derivation failed")
	}

	balance, err := h.gateway.BalanceOf(c.UserContext(), w.Address)
	if err != nil {
		return ledgerError(err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet_address": w.Address.Hex(),
		"balance":        balance.String(),
	})
}

// Balance returns the live ledger balance for an explicit address.
func (h *Handler) Balance(c *fiber.Ctx) error {
	addr := c.Query("address")
	if !common.IsHexAddress(addr) {
		return fiber.NewError(http.StatusBadRequest, "missing or invalid address")
	}

	balance, err := h.gateway.BalanceOf(c.UserContext(), common.HexToAddress(addr))
	if err != nil {
		return ledgerError(err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet_address": common.HexToAddress(addr).Hex(),
		"balance":        balance.String(),
	})
}

type creditRequest struct {
	WalletAddress string      `json:"wallet_address"`
	HydrogenKg    json.Number `json:"hydrogen_kg"`
}

// Credit issues credits to an explicit wallet address (administrator only).
func (h *Handler) Credit(c *fiber.Ctx) error {
	var req creditRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if !common.IsHexAddress(req.WalletAddress) {
		return fiber.NewError(http.StatusBadRequest, "missing or invalid wallet_address")
	}
	kg, err := decimal.NewFromString(req.HydrogenKg.String())
	if err != nil || kg.Sign() <= 0 {
		return fiber.NewError(http.StatusBadRequest, "hydrogen_kg must be a positive number")
	}

	balance, err := h.gateway.CreditAddress(c.UserContext(), common.HexToAddress(req.WalletAddress), kg)
	if err != nil {
		return ledgerError(err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet_address": common.HexToAddress(req.WalletAddress).Hex(),
		"balance":        balance.String(),
	})
}

type transferRequest struct {
	FromWallet string      `json:"from_wallet"`
	ToWallet   string      `json:"to_wallet"`
	HydrogenKg json.Number `json:"hydrogen_kg"`
}

// Transfer moves credits from the caller's derived wallet to another address.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if !common.IsHexAddress(req.FromWallet) || !common.IsHexAddress(req.ToWallet) {
		return fiber.NewError(http.StatusBadRequest, "missing or invalid wallet address")
	}
	kg, err := decimal.NewFromString(req.HydrogenKg.String())
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "hydrogen_kg must be a number")
	}

	pan, _ := c.Locals("pan").(string)
	own, err := wallet.Derive(pan)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "wallet derivation failed")
	}
	if own.Address != common.HexToAddress(req.FromWallet) {
		return fiber.NewError(http.StatusForbidden, ErrNotOwner.Error())
	}

	if err := h.gateway.Transfer(c.UserContext(), own.Address, common.HexToAddress(req.ToWallet), kg); err != nil {
		if errors.Is(err, ErrInvalidAmount) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return ledgerError(err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"from_wallet": own.Address.Hex(),
		"to_wallet":   common.HexToAddress(req.ToWallet).Hex(),
		"hydrogen_kg": kg.String(),
	})
}

// ledgerError translates ledger sentinels into HTTP errors without leaking
// transport details.
func ledgerError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrRejected):
		return fiber.NewError(http.StatusUnprocessableEntity, "ledger rejected the operation")
	case errors.Is(err, ledger.ErrUnavailable):
		return fiber.NewError(http.StatusBadGateway, "ledger unavailable")
	default:
		return fiber.NewError(http.StatusInternalServerError, "settlement failure")
	}
}
