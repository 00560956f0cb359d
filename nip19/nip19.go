// Package nip19 implements the bech32 entity encoding.
// See https://github.com/nostr-protocol/nips/blob/master/19.md for details.
package nip19

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// ToBech32 encodes hex-encoded bytes under an arbitrary human-readable prefix.
func ToBech32(prefix string, hexStr string) (string, error) {
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", fmt.Errorf("failed to decode hex: %w", err)
	}

	bits5, err := bech32.ConvertBits(b, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(prefix, bits5)
}

// ToHex decodes a bech32 string back into its hex payload, dropping the
// prefix. Use Decode when the prefix matters.
func ToHex(bech32String string) (string, error) {
	_, b, err := Decode(bech32String)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Decode returns the prefix and raw payload bytes of a bech32 string.
func Decode(bech32String string) (string, []byte, error) {
	prefix, bits5, err := bech32.DecodeNoLimit(bech32String)
	if err != nil {
		return "", nil, err
	}

	b, err := bech32.ConvertBits(bits5, 5, 8, false)
	if err != nil {
		return "", nil, fmt.Errorf("failed translating data into 8 bits: %w", err)
	}
	if len(b) < 32 {
		return "", nil, fmt.Errorf("data is less than 32 bytes (%d)", len(b))
	}

	return prefix, b[0:32], nil
}

// EncodePrivateKey encodes a hex private key as nsec.
func EncodePrivateKey(privateKeyHex string) (string, error) {
	return ToBech32("nsec", privateKeyHex)
}

// EncodePublicKey encodes a hex public key as npub.
func EncodePublicKey(publicKeyHex string) (string, error) {
	return ToBech32("npub", publicKeyHex)
}

// EncodeNote encodes a hex event id as note.
func EncodeNote(eventIDHex string) (string, error) {
	return ToBech32("note", eventIDHex)
}
