package models

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Identity names a participant by the base58 form of its ed25519 public key.
// Identities compare and order as plain strings.
type Identity string

// ParseIdentity validates a base58 wallet address and returns it as an Identity.
func ParseIdentity(address string) (Identity, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("empty wallet address")
	}
	pubKey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return "", fmt.Errorf("invalid wallet address %q: %w", address, err)
	}
	return Identity(pubKey.String()), nil
}

// Valid reports whether id decodes to a 32-byte public key.
func (id Identity) Valid() bool {
	_, err := solana.PublicKeyFromBase58(string(id))
	return err == nil
}

func (id Identity) String() string {
	return string(id)
}
