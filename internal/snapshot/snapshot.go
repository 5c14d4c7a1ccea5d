// Package snapshot materializes immutable pricing state from raw on-chain
// account bytes. Decoding is pure; callers fetch the bytes through solclient
// and must re-fetch for every quote, since reserves move between blocks.
package snapshot

import (
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/vistara-dev/agentipy/internal/curve"
)

// ErrBadLayout is returned when account bytes do not match the expected
// structure (wrong discriminator, short buffer).
var ErrBadLayout = errors.New("snapshot: account layout mismatch")

// bondingCurveDiscriminator is the 8-byte account tag the curve program
// writes at offset zero (little-endian 6966180631402821399).
var bondingCurveDiscriminator = [8]byte{0x17, 0xb7, 0xf8, 0x37, 0x60, 0xd8, 0xac, 0x60}

// bondingCurveAccount mirrors the on-chain account layout.
type bondingCurveAccount struct {
	Discriminator        [8]byte
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool
}

// DecodeBondingCurve parses bonding curve account bytes, validating the
// account discriminator before trusting the layout.
func DecodeBondingCurve(data []byte) (curve.BondingCurveState, error) {
	var acc bondingCurveAccount
	if err := bin.NewBorshDecoder(data).Decode(&acc); err != nil {
		return curve.BondingCurveState{}, fmt.Errorf("%w: %v", ErrBadLayout, err)
	}
	if acc.Discriminator != bondingCurveDiscriminator {
		return curve.BondingCurveState{}, fmt.Errorf("%w: bad bonding curve discriminator %x", ErrBadLayout, acc.Discriminator)
	}
	return curve.BondingCurveState{
		VirtualTokenReserves: acc.VirtualTokenReserves,
		VirtualSolReserves:   acc.VirtualSolReserves,
		RealTokenReserves:    acc.RealTokenReserves,
		RealSolReserves:      acc.RealSolReserves,
		TokenTotalSupply:     acc.TokenTotalSupply,
		Complete:             acc.Complete,
	}, nil
}

// CurveGlobal is the curve program's global configuration account: fee
// destination and the fee rate applied to every curve trade.
type CurveGlobal struct {
	Discriminator               [8]byte
	Initialized                 bool
	Authority                   solana.PublicKey
	FeeRecipient                solana.PublicKey
	InitialVirtualTokenReserves uint64
	InitialVirtualSolReserves   uint64
	InitialRealTokenReserves    uint64
	TokenTotalSupply            uint64
	FeeBasisPoints              uint64
}

// DecodeCurveGlobal parses the curve program's global account.
func DecodeCurveGlobal(data []byte) (CurveGlobal, error) {
	var acc CurveGlobal
	if err := bin.NewBorshDecoder(data).Decode(&acc); err != nil {
		return CurveGlobal{}, fmt.Errorf("%w: %v", ErrBadLayout, err)
	}
	if !acc.Initialized {
		return CurveGlobal{}, fmt.Errorf("%w: curve global account not initialized", ErrBadLayout)
	}
	return acc, nil
}

// TokenAccount is the head of the SPL token account structure, the only part
// the core reads.
type TokenAccount struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

// TokenAccountSize is the packed size of a full SPL token account.
const TokenAccountSize = 165

// DecodeTokenAccount parses the mint, owner and raw amount out of SPL token
// account bytes.
func DecodeTokenAccount(data []byte) (TokenAccount, error) {
	if len(data) < TokenAccountSize {
		return TokenAccount{}, fmt.Errorf("%w: token account data too short: %d", ErrBadLayout, len(data))
	}
	var acc TokenAccount
	if err := bin.NewBorshDecoder(data).Decode(&acc); err != nil {
		return TokenAccount{}, fmt.Errorf("%w: %v", ErrBadLayout, err)
	}
	return acc, nil
}

// NewPoolSnapshot assembles a validated constant-product snapshot from vault
// balances read in one shot. Zero reserves are a hard precondition failure,
// not a degraded quote.
func NewPoolSnapshot(baseMint, quoteMint solana.PublicKey, baseDecimals, quoteDecimals uint8, baseReserve, quoteReserve, feeBps uint64) (curve.PoolSnapshot, error) {
	if baseReserve == 0 || quoteReserve == 0 {
		return curve.PoolSnapshot{}, curve.ErrInvalidPoolState
	}
	return curve.PoolSnapshot{
		BaseMint:      baseMint,
		QuoteMint:     quoteMint,
		BaseDecimals:  baseDecimals,
		QuoteDecimals: quoteDecimals,
		BaseReserve:   baseReserve,
		QuoteReserve:  quoteReserve,
		FeeBps:        feeBps,
	}, nil
}
