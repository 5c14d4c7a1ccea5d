// Package derive computes deterministic program-derived addresses from seed
// byte sequences. All functions are pure: same seeds and program id always
// produce the same address, and nothing here touches the network.
package derive

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ErrDerivationExhausted means no bump byte in [0, 255] produced an off-curve
// address. This indicates a seed-construction bug and is never retryable.
var ErrDerivationExhausted = errors.New("derive: no valid bump found for seed set")

// FindProgramAddress searches for the canonical program-derived address for
// the given seeds: a single bump byte is appended to the seed list, starting
// at 255 and descending, until the candidate address is not a valid point on
// the ed25519 curve. Returns the address and the bump that produced it.
func FindProgramAddress(seeds [][]byte, programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	if len(seeds) >= solana.MaxSeeds {
		return solana.PublicKey{}, 0, fmt.Errorf("derive: too many seeds: %d", len(seeds))
	}
	for _, seed := range seeds {
		if len(seed) > solana.MaxSeedLength {
			return solana.PublicKey{}, 0, fmt.Errorf("derive: seed exceeds %d bytes", solana.MaxSeedLength)
		}
	}

	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{uint8(bump)}
		addr, err := solana.CreateProgramAddress(withBump, programID)
		if err != nil {
			// Candidate landed on the curve; try the next bump.
			continue
		}
		return addr, uint8(bump), nil
	}

	return solana.PublicKey{}, 0, ErrDerivationExhausted
}

// SortMints orders two mint addresses by raw byte comparison. Pool seeds built
// from the (min, max) pair resolve to the same address regardless of which
// mint the caller passes first.
func SortMints(a, b solana.PublicKey) (minKey, maxKey solana.PublicKey) {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		return b, a
	}
	return a, b
}

// AssociatedTokenAccount derives the SPL associated token account for an
// owner/mint pair.
func AssociatedTokenAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive: associated token account: %w", err)
	}
	return ata, nil
}

// BondingCurve derives the bonding curve account for a token mint.
func BondingCurve(mint, programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return FindProgramAddress([][]byte{[]byte("bonding-curve"), mint.Bytes()}, programID)
}
