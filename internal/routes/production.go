package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/h2ledger/h2ledger/internal/production"
)

// RegisterProductionRoutes wires the producer-facing record endpoints.
func RegisterProductionRoutes(r fiber.Router, h *production.Handler) {
	r.Post("/records", h.Submit)
	r.Get("/records", h.List)
}
