package auth

import (
	"errors"
	"time"

	"github.com/h2ledger/h2ledger/internal/config"
	"github.com/h2ledger/h2ledger/internal/identity"
)

// ErrInvalidSession indicates the presented session token failed
// verification or has expired.
var ErrInvalidSession = errors.New("invalid session")

// SessionClaims are the identity assertions embedded in a session token.
type SessionClaims struct {
	PAN   string
	GST   string
	Email string
}

// Session is a signed session token plus its remaining validity.
type Session struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// Service converts a verified identity into a signed session and validates
// sessions on subsequent requests. Sessions are only ever issued after a
// successful OTP verification.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService builds the session service from application config.
func NewService(cfg config.Config) *Service {
	return &Service{secret: []byte(cfg.SessionSecret), ttl: cfg.SessionTTL}
}

// IssueSession signs a session token for the verified company.
func (s *Service) IssueSession(company identity.Company) (Session, error) {
	now := time.Now()
	claims := map[string]any{
		"sub":   company.PAN,
		"gst":   company.GST,
		"email": company.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	}
	token, err := SignHS256(claims, s.secret)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresIn: int64(s.ttl.Seconds())}, nil
}

// VerifySession validates the token signature and expiry and returns the
// embedded identity claims.
func (s *Service) VerifySession(token string) (SessionClaims, error) {
	claims, err := ParseAndVerifyHS256(token, s.secret)
	if err != nil {
		return SessionClaims{}, ErrInvalidSession
	}

	exp, ok := claims["exp"].(float64)
	if !ok || time.Now().Unix() > int64(exp) {
		return SessionClaims{}, ErrInvalidSession
	}

	pan, _ := claims["sub"].(string)
	gst, _ := claims["gst"].(string)
	email, _ := claims["email"].(string)
	if pan == "" {
		return SessionClaims{}, ErrInvalidSession
	}
	return SessionClaims{PAN: pan, GST: gst, Email: email}, nil
}
