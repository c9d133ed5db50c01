package production

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/h2ledger/h2ledger/internal/ledger"
	"github.com/h2ledger/h2ledger/internal/logging"
	"github.com/h2ledger/h2ledger/internal/settlement"
	"github.com/h2ledger/h2ledger/internal/wallet"
)

// brokenCreditLedger accepts registrations but declines every credit, to
// exercise the verified-but-uncredited path.
type brokenCreditLedger struct {
	ledger.Ledger
}

func (b brokenCreditLedger) Credit(context.Context, common.Address, *big.Int) error {
	return ledger.ErrUnavailable
}

func newTestService(l ledger.Ledger) (*Service, Repository) {
	repo := NewMemoryRepository()
	gateway := settlement.NewGateway(l, logging.Discard())
	return NewService(repo, gateway, logging.Discard()), repo
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func TestSubmitRejectsNonPositiveQuantities(t *testing.T) {
	svc, _ := newTestService(ledger.NewInMemory())
	ctx := context.Background()

	cases := []struct {
		name        string
		hydrogen    string
		electricity string
	}{
		{"zero hydrogen", "0", "100"},
		{"negative hydrogen", "-1", "100"},
		{"zero electricity", "10", "0"},
		{"negative electricity", "10", "-50"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, "ABCDE1234F", "22AAAAA0000A1Z5", mustDecimal(t, tc.hydrogen), mustDecimal(t, tc.electricity))
			if !errors.Is(err, settlement.ErrInvalidAmount) {
				t.Fatalf("expected ErrInvalidAmount, got %v", err)
			}
		})
	}
}

func TestSubmitStoresUnverifiedRecord(t *testing.T) {
	svc, _ := newTestService(ledger.NewInMemory())
	ctx := context.Background()

	record, err := svc.Submit(ctx, "ABCDE1234F", "22AAAAA0000A1Z5", mustDecimal(t, "12.5"), mustDecimal(t, "600"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if record.ID == "" {
		t.Fatalf("record has no id")
	}
	if record.Verified {
		t.Fatalf("fresh record must be unverified")
	}

	pending, err := svc.ListPending(ctx)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != record.ID {
		t.Fatalf("pending set = %+v", pending)
	}

	mine, err := svc.List(ctx, "ABCDE1234F")
	if err != nil {
		t.Fatalf("list by pan: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("expected one record for producer, got %d", len(mine))
	}
}

func TestVerifyCreditsProducer(t *testing.T) {
	l := ledger.NewInMemory()
	svc, _ := newTestService(l)
	ctx := context.Background()

	record, err := svc.Submit(ctx, "ABCDE1234F", "22AAAAA0000A1Z5", mustDecimal(t, "10"), mustDecimal(t, "500"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	result, err := svc.Verify(ctx, record.ID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !result.Record.Verified {
		t.Fatalf("verified record not flagged verified")
	}
	if !result.Balance.Equal(mustDecimal(t, "10")) {
		t.Fatalf("balance after verify = %s, want 10", result.Balance)
	}

	// The record moved out of the pending set and into the producer's list.
	pending, err := svc.ListPending(ctx)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending set still holds %d records", len(pending))
	}
	mine, err := svc.List(ctx, "ABCDE1234F")
	if err != nil {
		t.Fatalf("list by pan: %v", err)
	}
	if len(mine) != 1 || !mine[0].Verified {
		t.Fatalf("producer records after verify = %+v", mine)
	}

	w, err := wallet.Derive("ABCDE1234F")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	raw, err := l.BalanceOf(ctx, w.Address)
	if err != nil {
		t.Fatalf("raw balance: %v", err)
	}
	want, _ := new(big.Int).SetString("10000000000000000000", 10)
	if raw.Cmp(want) != 0 {
		t.Fatalf("ledger units = %s, want %s", raw, want)
	}
}

func TestVerifyUnknownRecord(t *testing.T) {
	svc, _ := newTestService(ledger.NewInMemory())

	if _, err := svc.Verify(context.Background(), "no-such-record"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestVerifyIsOneShot(t *testing.T) {
	svc, _ := newTestService(ledger.NewInMemory())
	ctx := context.Background()

	record, err := svc.Submit(ctx, "ABCDE1234F", "22AAAAA0000A1Z5", mustDecimal(t, "10"), mustDecimal(t, "500"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Verify(ctx, record.ID); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if _, err := svc.Verify(ctx, record.ID); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("second verify should not find the record, got %v", err)
	}
}

func TestVerifyPartialSettlement(t *testing.T) {
	svc, _ := newTestService(brokenCreditLedger{ledger.NewInMemory()})
	ctx := context.Background()

	record, err := svc.Submit(ctx, "ABCDE1234F", "22AAAAA0000A1Z5", mustDecimal(t, "10"), mustDecimal(t, "500"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err = svc.Verify(ctx, record.ID)
	var partial *PartialSettlementError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialSettlementError, got %v", err)
	}
	if partial.RecordID != record.ID || partial.PAN != "ABCDE1234F" {
		t.Fatalf("partial settlement details: %+v", partial)
	}
	if !errors.Is(err, ledger.ErrUnavailable) {
		t.Fatalf("cause not preserved through unwrap: %v", err)
	}

	// The record stays in the verified set; it is not rolled back.
	pending, err := svc.ListPending(ctx)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("record returned to pending set after failed credit")
	}
	mine, err := svc.List(ctx, "ABCDE1234F")
	if err != nil {
		t.Fatalf("list by pan: %v", err)
	}
	if len(mine) != 1 || !mine[0].Verified {
		t.Fatalf("producer records after partial settlement = %+v", mine)
	}
}
