package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/h2ledger/h2ledger/internal/settlement"
)

// RegisterSettlementRoutes wires wallet and transfer endpoints.
func RegisterSettlementRoutes(r fiber.Router, h *settlement.Handler) {
	r.Get("/wallet", h.Wallet)
	r.Get("/balance", h.Balance)
	r.Post("/transfers", h.Transfer)
}
