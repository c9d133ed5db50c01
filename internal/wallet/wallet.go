package wallet

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrEmptyIdentity indicates derivation was attempted with no identity string.
var ErrEmptyIdentity = errors.New("identity must not be empty")

// Wallet is a ledger account derived deterministically from an identity
// string. The private key stays inside this type; it is never persisted and
// never appears in logs.
type Wallet struct {
	Address common.Address

	key *ecdsa.PrivateKey
}

// Derive maps an identity string to its wallet: the SHA-256 digest of the
// identity is used directly as the secp256k1 private scalar and the address
// follows from the public key. The function is pure, so the same identity
// yields the same wallet on every call and nothing needs to be stored.
//
// Identities that collide under SHA-256 would share a wallet; that risk is
// accepted and bounded by the hash's preimage resistance.
func Derive(identity string) (Wallet, error) {
	if identity == "" {
		return Wallet{}, ErrEmptyIdentity
	}

	digest := sha256.Sum256([]byte(identity))
	key, err := crypto.ToECDSA(digest[:])
	if err != nil {
		// Digest falls outside the curve order. Astronomically unlikely,
		// but ToECDSA reports it and we refuse to derive a wallet.
		return Wallet{}, fmt.Errorf("derive key: %w", err)
	}

	return Wallet{
		Address: crypto.PubkeyToAddress(key.PublicKey),
		key:     key,
	}, nil
}

// Signer exposes the derived private key for callers that must sign on the
// wallet's behalf. Callers must not persist or log the returned key.
func (w Wallet) Signer() *ecdsa.PrivateKey {
	return w.key
}

// LogValue renders only the address, keeping key material out of log output.
func (w Wallet) LogValue() slog.Value {
	return slog.StringValue(w.Address.Hex())
}
