// Package wallet holds the local signing keypair. No custody features: keys
// arrive base58-encoded from configuration and never leave the process.
package wallet

import (
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"github.com/vistara-dev/agentipy/internal/derive"
)

// Wallet wraps the primary signing key.
type Wallet struct {
	PrivateKey solana.PrivateKey
	PublicKey  solana.PublicKey

	mu       sync.Mutex
	ataCache map[solana.PublicKey]solana.PublicKey
}

// New builds a wallet from a base58-encoded 64-byte private key.
func New(privateKeyBase58 string) (*Wallet, error) {
	raw, err := base58.Decode(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("wallet: decode private key: %w", err)
	}
	if len(raw) != 64 {
		return nil, fmt.Errorf("wallet: invalid private key length: expected 64 bytes, got %d", len(raw))
	}
	key := solana.PrivateKey(raw)
	return &Wallet{
		PrivateKey: key,
		PublicKey:  key.PublicKey(),
		ataCache:   make(map[solana.PublicKey]solana.PublicKey),
	}, nil
}

// SignTransaction signs over the exact bytes that will be broadcast, using
// the wallet key plus any ephemeral signers (e.g. a new mint). Mutating an
// instruction after signing invalidates the signatures, so callers sign last.
func (w *Wallet) SignTransaction(tx *solana.Transaction, extra ...solana.PrivateKey) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.PublicKey) {
			return &w.PrivateKey
		}
		for i := range extra {
			if extra[i].PublicKey().Equals(key) {
				return &extra[i]
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("wallet: sign transaction: %w", err)
	}
	return nil
}

// ATA returns the wallet's associated token account for a mint. Derivation is
// deterministic so results are cached.
func (w *Wallet) ATA(mint solana.PublicKey) (solana.PublicKey, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ata, ok := w.ataCache[mint]; ok {
		return ata, nil
	}
	ata, err := derive.AssociatedTokenAccount(w.PublicKey, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	w.ataCache[mint] = ata
	return ata, nil
}
