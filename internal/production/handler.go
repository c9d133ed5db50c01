package production

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/h2ledger/h2ledger/internal/settlement"
)

// Handler exposes production record HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a production HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type submitRequest struct {
	HydrogenKg     json.Number `json:"hydrogen_kg"`
	ElectricityKwh json.Number `json:"electricity_kwh"`
}

type recordResponse struct {
	ID             string `json:"id"`
	PAN            string `json:"pan"`
	GST            string `json:"gst"`
	HydrogenKg     string `json:"hydrogen_kg"`
	ElectricityKwh string `json:"electricity_kwh"`
	CreatedAt      string `json:"created_at"`
	Verified       bool   `json:"verified"`
}

func toResponse(record Record) recordResponse {
	return recordResponse{
		ID:             record.ID,
		PAN:            record.PAN,
		GST:            record.GST,
		HydrogenKg:     record.HydrogenKg.String(),
		ElectricityKwh: record.ElectricityKwh.String(),
		CreatedAt:      record.CreatedAt.Format(time.RFC3339Nano),
		Verified:       record.Verified,
	}
}

// Submit records an unverified measurement for the authenticated producer.
func (h *Handler) Submit(c *fiber.Ctx) error {
	pan, _ := c.Locals("pan").(string)
	gst, _ := c.Locals("gst").(string)
	if pan == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	hydrogen, err := decimal.NewFromString(req.HydrogenKg.String())
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "hydrogen_kg must be a number")
	}
	electricity, err := decimal.NewFromString(req.ElectricityKwh.String())
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "electricity_kwh must be a number")
	}

	record, err := h.service.Submit(c.UserContext(), pan, gst, hydrogen, electricity)
	if err != nil {
		if errors.Is(err, settlement.ErrInvalidAmount) {
			return fiber.NewError(http.StatusBadRequest, "amounts must be positive numbers")
		}
		return fiber.NewError(http.StatusInternalServerError, "failed to save record")
	}

	return c.Status(http.StatusCreated).JSON(toResponse(record))
}

// List returns the authenticated producer's records, newest first.
func (h *Handler) List(c *fiber.Ctx) error {
	pan, _ := c.Locals("pan").(string)
	if pan == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	records, err := h.service.List(c.UserContext(), pan)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "failed to fetch records")
	}

	out := make([]recordResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toResponse(record))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Pending returns every unverified record (administrator only).
func (h *Handler) Pending(c *fiber.Ctx) error {
	records, err := h.service.ListPending(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "failed to fetch records")
	}

	out := make([]recordResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toResponse(record))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Verify moves a record to the verified set and issues credits for it
// (administrator only). A partial settlement is reported distinctly so it
// can be reconciled, never as a generic failure.
func (h *Handler) Verify(c *fiber.Ctx) error {
	recordID := c.Params("id")

	result, err := h.service.Verify(c.UserContext(), recordID)
	if err != nil {
		var partial *PartialSettlementError
		if errors.As(err, &partial) {
			return c.Status(http.StatusBadGateway).JSON(fiber.Map{
				"error":     "partial_settlement",
				"record_id": partial.RecordID,
				"detail":    "record verified but credits were not issued; manual reconciliation required",
			})
		}
		if errors.Is(err, ErrRecordNotFound) {
			return fiber.NewError(http.StatusNotFound, "record not found")
		}
		return fiber.NewError(http.StatusInternalServerError, "verification failed")
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"record":  toResponse(result.Record),
		"balance": result.Balance.String(),
	})
}
