package production

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/h2ledger/h2ledger/internal/settlement"
)

// Service owns the production record workflow: submission of unverified
// measurements and the verify-then-credit transition.
type Service struct {
	repo    Repository
	gateway *settlement.Gateway
	logger  *slog.Logger
}

// NewService constructs a production workflow service.
func NewService(repo Repository, gateway *settlement.Gateway, logger *slog.Logger) *Service {
	return &Service{repo: repo, gateway: gateway, logger: logger}
}

// Submit appends an unverified measurement for the producer. Both quantities
// must be positive.
func (s *Service) Submit(ctx context.Context, pan, gst string, hydrogenKg, electricityKwh decimal.Decimal) (Record, error) {
	if hydrogenKg.Sign() <= 0 || electricityKwh.Sign() <= 0 {
		return Record{}, settlement.ErrInvalidAmount
	}

	record := Record{
		ID:             uuid.NewString(),
		PAN:            pan,
		GST:            gst,
		HydrogenKg:     hydrogenKg,
		ElectricityKwh: electricityKwh,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.InsertUnverified(ctx, record); err != nil {
		return Record{}, err
	}
	return record, nil
}

// List returns the producer's records from both sets, newest first.
func (s *Service) List(ctx context.Context, pan string) ([]Record, error) {
	return s.repo.ListByPAN(ctx, pan)
}

// ListPending returns every unverified record for administrator review.
func (s *Service) ListPending(ctx context.Context) ([]Record, error) {
	return s.repo.ListUnverified(ctx)
}

// VerifyResult reports the outcome of a successful verification.
type VerifyResult struct {
	Record  Record
	Balance decimal.Decimal
}

// Verify moves the record from the unverified to the verified set and
// credits the producer's wallet with the measured hydrogen output. When the
// credit fails after the record has moved, the record stays verified and a
// *PartialSettlementError is returned so the missing credits can be
// reconciled manually; it is never retried automatically because the ledger
// credit is not idempotent.
func (s *Service) Verify(ctx context.Context, recordID string) (VerifyResult, error) {
	record, err := s.repo.TakeUnverified(ctx, recordID)
	if err != nil {
		return VerifyResult{}, err
	}

	record.Verified = true
	if err := s.repo.InsertVerified(ctx, record); err != nil {
		return VerifyResult{}, fmt.Errorf("move record to verified store: %w", err)
	}

	balance, err := s.gateway.CreditProducer(ctx, record.PAN, record.HydrogenKg)
	if err != nil {
		s.logger.Error("record verified but ledger credit failed",
			slog.String("record_id", record.ID),
			slog.String("pan", record.PAN),
			slog.String("hydrogen_kg", record.HydrogenKg.String()),
			slog.Any("error", err),
		)
		return VerifyResult{Record: record}, &PartialSettlementError{RecordID: record.ID, PAN: record.PAN, Err: err}
	}

	s.logger.Info("record verified and credited",
		slog.String("record_id", record.ID),
		slog.String("pan", record.PAN),
		slog.String("hydrogen_kg", record.HydrogenKg.String()),
	)
	return VerifyResult{Record: record, Balance: balance}, nil
}
