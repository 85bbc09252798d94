package solana

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	bin "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
)

var ErrFeePayerMismatch = errors.New("transaction fee payer is not this wallet")

// Wallet signs transactions with a local key.
type Wallet struct {
	key solanago.PrivateKey
}

// LoadWallet decodes a base58 64 byte secret key (seed followed by public key).
func LoadWallet(secret string) (*Wallet, error) {
	key, err := solanago.PrivateKeyFromBase58(strings.TrimSpace(secret))
	if err != nil {
		return nil, fmt.Errorf("decode secret key: %w", err)
	}
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", ed25519.PrivateKeySize, len(key))
	}
	derived := ed25519.NewKeyFromSeed(key[:ed25519.SeedSize])
	if !bytes.Equal(derived[ed25519.SeedSize:], key[ed25519.SeedSize:]) {
		return nil, fmt.Errorf("secret key public half does not match its seed")
	}
	return &Wallet{key: key}, nil
}

// LoadWalletFile reads a base58 secret key from path.
func LoadWalletFile(path string) (*Wallet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wallet: %w", err)
	}
	return LoadWallet(string(b))
}

func (w *Wallet) PublicKey() PublicKey { return w.key.PublicKey() }

// SignTransaction signs a base64 serialized transaction whose fee payer is this wallet and
// returns it base64 encoded.
func (w *Wallet) SignTransaction(b64 string) (string, error) {
	tx, err := decodeTransaction(b64)
	if err != nil {
		return "", err
	}
	if len(tx.Message.AccountKeys) == 0 {
		return "", fmt.Errorf("transaction has no accounts")
	}
	if !tx.Message.AccountKeys[0].Equals(w.PublicKey()) {
		return "", ErrFeePayerMismatch
	}

	_, err = tx.Sign(func(key solanago.PublicKey) *solanago.PrivateKey {
		if key.Equals(w.PublicKey()) {
			return &w.key
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("encode transaction: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func decodeTransaction(b64 string) (*solanago.Transaction, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrMalformedTransaction, err)
	}
	tx, err := solanago.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTransaction, err)
	}
	return tx, nil
}
