package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/h2ledger/h2ledger/internal/production"
	"github.com/h2ledger/h2ledger/internal/settlement"
)

// RegisterAdminRoutes wires the administrator endpoints: reviewing and
// verifying production records, and crediting arbitrary wallets.
func RegisterAdminRoutes(r fiber.Router, prod *production.Handler, settle *settlement.Handler) {
	r.Get("/records/pending", prod.Pending)
	r.Post("/records/:id/verify", prod.Verify)
	r.Post("/credits", settle.Credit)
}
