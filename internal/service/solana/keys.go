package solana

import (
	"fmt"

	solanago "github.com/gagliardetto/solana-go"
)

// PublicKey is an account address.
type PublicKey = solanago.PublicKey

// ParsePublicKey decodes a base58 address and checks its length.
func ParsePublicKey(s string) (PublicKey, error) {
	pk, err := solanago.PublicKeyFromBase58(s)
	if err != nil {
		return pk, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return pk, nil
}

// IsPublicKey reports whether s is a well-formed address.
func IsPublicKey(s string) bool {
	_, err := ParsePublicKey(s)
	return err == nil
}
