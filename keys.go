package nostr

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// GeneratePrivateKey draws 32 bytes from crypto/rand and returns them as a
// lowercase hex secret key.
func GeneratePrivateKey() string {
	params := make([]byte, 32)
	if _, err := rand.Read(params); err != nil {
		return ""
	}
	sk := secp256k1.PrivKeyFromBytes(params)
	return hex.EncodeToString(sk.Serialize())
}

// GetPublicKey derives the x-only public key corresponding to sk, as lowercase hex.
func GetPublicKey(sk string) (string, error) {
	b, err := hex.DecodeString(sk)
	if err != nil {
		return "", fmt.Errorf("invalid secret key hex: %w", err)
	}
	if len(b) != 32 {
		return "", fmt.Errorf("secret key must be 32 bytes, got %d", len(b))
	}

	privKey := secp256k1.PrivKeyFromBytes(b)
	return hex.EncodeToString(schnorr.SerializePubKey(privKey.PubKey())), nil
}

// GenerateKeyPair returns a fresh secret key and its x-only public key.
func GenerateKeyPair() (sk string, pk string, err error) {
	sk = GeneratePrivateKey()
	if sk == "" {
		return "", "", fmt.Errorf("failed to generate secret key")
	}
	pk, err = GetPublicKey(sk)
	if err != nil {
		return "", "", err
	}
	return sk, pk, nil
}

// ValidateKeyPair reports whether pk is exactly the public key derivable from
// sk. Both inputs must be 64 hex characters; anything else returns false
// without raising.
func ValidateKeyPair(sk, pk string) bool {
	if len(sk) != 64 || len(pk) != 64 {
		return false
	}
	derived, err := GetPublicKey(sk)
	if err != nil {
		return false
	}
	return derived == pk
}
