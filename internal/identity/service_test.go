package identity

import (
	"context"
	"errors"
	"testing"
)

func seededService() *Service {
	return NewService(NewMemoryRepository(Company{
		PAN:         "ABCDE1234F",
		GST:         "22AAAAA0000A1Z5",
		Email:       "producer-one@example.com",
		CompanyName: "Green Hydro Ltd",
	}))
}

func TestLookup(t *testing.T) {
	svc := seededService()
	ctx := context.Background()

	company, err := svc.Lookup(ctx, "ABCDE1234F", "22AAAAA0000A1Z5")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if company.Email != "producer-one@example.com" {
		t.Fatalf("unexpected company: %+v", company)
	}
}

func TestLookupUnknownPAN(t *testing.T) {
	svc := seededService()

	if _, err := svc.Lookup(context.Background(), "ZZZZZ9999Z", "22AAAAA0000A1Z5"); !errors.Is(err, ErrUnknownIdentity) {
		t.Fatalf("expected ErrUnknownIdentity, got %v", err)
	}
}

func TestLookupWrongGST(t *testing.T) {
	svc := seededService()

	// A wrong GST must be indistinguishable from an unknown PAN.
	if _, err := svc.Lookup(context.Background(), "ABCDE1234F", "99ZZZZZ9999Z9Z9"); !errors.Is(err, ErrUnknownIdentity) {
		t.Fatalf("expected ErrUnknownIdentity, got %v", err)
	}
}

func TestEnsureProfileFillsDefaults(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	company, err := svc.EnsureProfile(ctx, Company{
		PAN:   "ABCDE1234F",
		GST:   "22AAAAA0000A1Z5",
		Email: "producer-one@example.com",
	})
	if err != nil {
		t.Fatalf("ensure profile: %v", err)
	}

	if company.CompanyName != defaultCompanyName {
		t.Fatalf("company name = %q", company.CompanyName)
	}
	if company.Address != defaultAddress {
		t.Fatalf("address = %q", company.Address)
	}
	if company.Phone != defaultPhone {
		t.Fatalf("phone = %q", company.Phone)
	}
	if company.Sector != defaultSector {
		t.Fatalf("sector = %q", company.Sector)
	}
	if company.CreatedAt.IsZero() {
		t.Fatalf("created at not set")
	}

	stored, err := repo.FindByPAN(ctx, "ABCDE1234F")
	if err != nil {
		t.Fatalf("find after upsert: %v", err)
	}
	if stored.CompanyName != defaultCompanyName {
		t.Fatalf("defaults not persisted: %+v", stored)
	}
}

func TestEnsureProfileKeepsExistingValues(t *testing.T) {
	svc := seededService()

	company, err := svc.EnsureProfile(context.Background(), Company{
		PAN:         "ABCDE1234F",
		GST:         "22AAAAA0000A1Z5",
		Email:       "producer-one@example.com",
		CompanyName: "Green Hydro Ltd",
		Address:     "12 Electrolysis Road",
		Phone:       "9876543210",
		Sector:      "Energy",
	})
	if err != nil {
		t.Fatalf("ensure profile: %v", err)
	}

	if company.CompanyName != "Green Hydro Ltd" || company.Address != "12 Electrolysis Road" {
		t.Fatalf("existing profile values overwritten: %+v", company)
	}
	if company.Phone != "9876543210" || company.Sector != "Energy" {
		t.Fatalf("existing profile values overwritten: %+v", company)
	}
}
