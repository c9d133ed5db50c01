package otp

import (
	"context"
	"time"
)

// Challenge is the stored half of an issued one-time password. Only a bcrypt
// hash of the code is kept; the plaintext exists solely in the email sent to
// the company.
type Challenge struct {
	CodeHash []byte    `json:"code_hash"`
	IssuedAt time.Time `json:"issued_at"`
}

// Store keeps at most one active challenge per identity key. Put overwrites
// any prior challenge, permanently invalidating its code. Remove deletes the
// entry only while it still holds exactly the given challenge, so consuming
// a challenge cannot race a concurrent re-issue.
type Store interface {
	Put(ctx context.Context, identity string, ch Challenge) error
	Get(ctx context.Context, identity string) (Challenge, bool, error)
	Remove(ctx context.Context, identity string, ch Challenge) error
}
