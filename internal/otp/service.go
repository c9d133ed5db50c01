package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/h2ledger/h2ledger/internal/identity"
	"github.com/h2ledger/h2ledger/internal/mailer"
)

var (
	// ErrNoActiveChallenge indicates verification was attempted with no
	// challenge outstanding for the identity.
	ErrNoActiveChallenge = errors.New("no active challenge")

	// ErrChallengeExpired indicates the challenge outlived its validity
	// window. The challenge is consumed when this is returned.
	ErrChallengeExpired = errors.New("challenge expired")

	// ErrChallengeMismatch indicates the submitted code is wrong. The
	// challenge stays active so the company can retry within the window.
	ErrChallengeMismatch = errors.New("challenge mismatch")
)

const (
	mailSubject = "Your OTP Code for Login"
	mailText    = "Your One-Time Password (OTP) is: %s. It is valid for 5 minutes. Please do not share this code with anyone."
	mailHTML    = "<p>Your One-Time Password (OTP) is: <strong>%s</strong>.</p><p>It is valid for 5 minutes. Please do not share this code with anyone.</p>"
)

// Service issues, verifies and expires one-time passwords for registered
// companies. Exactly one challenge is active per PAN; issuing a new one
// permanently invalidates its predecessor.
type Service struct {
	identities *identity.Service
	store      Store
	mail       mailer.Mailer
	ttl        time.Duration
	logger     *slog.Logger

	now func() time.Time
}

// NewService builds the OTP service. ttl is the challenge validity window.
func NewService(identities *identity.Service, store Store, mail mailer.Mailer, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		identities: identities,
		store:      store,
		mail:       mail,
		ttl:        ttl,
		logger:     logger,
		now:        time.Now,
	}
}

// RequestChallenge validates the PAN/GST pair, stores a fresh challenge for
// the PAN (overwriting any prior one) and mails the plaintext code. A nil
// return means "challenge issued"; it never implies a session.
func (s *Service) RequestChallenge(ctx context.Context, pan, gst string) error {
	company, err := s.identities.Lookup(ctx, pan, gst)
	if err != nil {
		return err
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}

	if err := s.store.Put(ctx, company.PAN, Challenge{CodeHash: hash, IssuedAt: s.now().UTC()}); err != nil {
		return err
	}

	if err := s.mail.Send(ctx, company.Email,
		mailSubject,
		fmt.Sprintf(mailText, code),
		fmt.Sprintf(mailHTML, code),
	); err != nil {
		return err
	}

	s.logger.Info("otp challenge issued", slog.String("pan", company.PAN), slog.String("email", company.Email))
	return nil
}

// VerifyChallenge checks the submitted code against the active challenge.
// The challenge is consumed on success and on an expiry check; a mismatch
// leaves it in place so the company can retry until the window closes.
func (s *Service) VerifyChallenge(ctx context.Context, pan, gst, code string) (identity.Company, error) {
	company, err := s.identities.Lookup(ctx, pan, gst)
	if err != nil {
		return identity.Company{}, err
	}

	ch, ok, err := s.store.Get(ctx, company.PAN)
	if err != nil {
		return identity.Company{}, err
	}
	if !ok {
		return identity.Company{}, ErrNoActiveChallenge
	}

	if s.now().Sub(ch.IssuedAt) > s.ttl {
		if err := s.store.Remove(ctx, company.PAN, ch); err != nil {
			s.logger.Warn("remove expired challenge", slog.String("pan", company.PAN), slog.Any("error", err))
		}
		return identity.Company{}, ErrChallengeExpired
	}

	if bcrypt.CompareHashAndPassword(ch.CodeHash, []byte(code)) != nil {
		return identity.Company{}, ErrChallengeMismatch
	}

	if err := s.store.Remove(ctx, company.PAN, ch); err != nil {
		return identity.Company{}, err
	}

	s.logger.Info("otp challenge verified", slog.String("pan", company.PAN))
	return company, nil
}

// generateCode returns a uniformly random 6-digit code in [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100_000), nil
}
