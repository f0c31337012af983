package auth

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"

	"event-escrow/internal/models"

	"github.com/mr-tron/base58"
)

// LoginMessage is the message a wallet signs to authenticate.
const LoginMessage = "Sign this message to authenticate with the event escrow ledger"

var ErrInvalidSignature = errors.New("invalid signature")

// VerifyWalletSignature checks that signature is walletAddress's ed25519
// signature over LoginMessage. Signatures are accepted in base58 or hex.
func VerifyWalletSignature(walletAddress, signature string) (models.Identity, error) {
	identity, err := models.ParseIdentity(walletAddress)
	if err != nil {
		return "", err
	}

	pubKey, err := base58.Decode(identity.String())
	if err != nil {
		return "", fmt.Errorf("invalid public key format: %w", err)
	}

	sig, err := base58.Decode(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		sig, err = hex.DecodeString(signature)
		if err != nil {
			return "", fmt.Errorf("invalid signature format")
		}
	}
	if len(sig) != ed25519.SignatureSize {
		return "", ErrInvalidSignature
	}

	if !ed25519.Verify(ed25519.PublicKey(pubKey), []byte(LoginMessage), sig) {
		return "", ErrInvalidSignature
	}
	return identity, nil
}
