package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/h2ledger/h2ledger/internal/config"
	"github.com/h2ledger/h2ledger/internal/identity"
)

func newSessionService(ttl time.Duration) *Service {
	return NewService(config.Config{SessionSecret: "test-secret", SessionTTL: ttl})
}

func testCompany() identity.Company {
	return identity.Company{
		PAN:   "ABCDE1234F",
		GST:   "22AAAAA0000A1Z5",
		Email: "producer-one@example.com",
	}
}

func TestSessionRoundTrip(t *testing.T) {
	svc := newSessionService(12 * time.Hour)

	session, err := svc.IssueSession(testCompany())
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	if session.Token == "" {
		t.Fatalf("empty token")
	}
	if session.ExpiresIn != int64((12 * time.Hour).Seconds()) {
		t.Fatalf("expires_in = %d", session.ExpiresIn)
	}

	claims, err := svc.VerifySession(session.Token)
	if err != nil {
		t.Fatalf("verify session: %v", err)
	}
	if claims.PAN != "ABCDE1234F" || claims.GST != "22AAAAA0000A1Z5" || claims.Email != "producer-one@example.com" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	svc := newSessionService(time.Hour)

	session, err := svc.IssueSession(testCompany())
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}

	parts := strings.Split(session.Token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", session.Token)
	}
	tampered := parts[0] + ".eyJzdWIiOiJaWlpaWjk5OTlaIn0." + parts[2]

	if _, err := svc.VerifySession(tampered); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestWrongSecretRejected(t *testing.T) {
	issuer := newSessionService(time.Hour)
	verifier := NewService(config.Config{SessionSecret: "another-secret", SessionTTL: time.Hour})

	session, err := issuer.IssueSession(testCompany())
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	if _, err := verifier.VerifySession(session.Token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestExpiredSessionRejected(t *testing.T) {
	svc := newSessionService(-time.Minute)

	session, err := svc.IssueSession(testCompany())
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	if _, err := svc.VerifySession(session.Token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession for expired token, got %v", err)
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	svc := newSessionService(time.Hour)

	for _, token := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		if _, err := svc.VerifySession(token); !errors.Is(err, ErrInvalidSession) {
			t.Fatalf("token %q: expected ErrInvalidSession, got %v", token, err)
		}
	}
}
