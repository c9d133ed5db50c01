package identity

import (
	"context"
	"errors"
	"time"
)

// ErrUnknownIdentity indicates the PAN/GST pair does not match a registered company.
var ErrUnknownIdentity = errors.New("unknown identity")

// Service manages the registered-company set.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Lookup resolves a PAN/GST pair against the registered-company set. Both
// values must match the stored record; a wrong GST is indistinguishable from
// an unregistered PAN to the caller.
func (s *Service) Lookup(ctx context.Context, pan, gst string) (Company, error) {
	company, err := s.repo.FindByPAN(ctx, pan)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Company{}, ErrUnknownIdentity
		}
		return Company{}, err
	}
	if company.GST != gst {
		return Company{}, ErrUnknownIdentity
	}
	return company, nil
}

// EnsureProfile fills in placeholder profile fields for a company that has
// authenticated but never completed its profile, then persists the merge.
func (s *Service) EnsureProfile(ctx context.Context, company Company) (Company, error) {
	if company.CompanyName == "" {
		company.CompanyName = defaultCompanyName
	}
	if company.Address == "" {
		company.Address = defaultAddress
	}
	if company.Phone == "" {
		company.Phone = defaultPhone
	}
	if company.Sector == "" {
		company.Sector = defaultSector
	}
	if company.CreatedAt.IsZero() {
		company.CreatedAt = time.Now().UTC()
	}
	if err := s.repo.Upsert(ctx, company); err != nil {
		return Company{}, err
	}
	return company, nil
}
