// Package instruction packs on-chain instruction payloads. Each operation
// kind carries a fixed account-ordering contract and a fixed binary layout:
// a little-endian discriminator followed by little-endian numeric arguments.
// Programs index accounts positionally, so the orderings here are part of the
// wire contract and must not be rearranged.
package instruction

import (
	"errors"

	"github.com/gagliardetto/solana-go"
)

// ErrSchemaViolation is returned when the supplied accounts or arguments do
// not match the operation's schema. The builder refuses to produce a
// malformed payload.
var ErrSchemaViolation = errors.New("instruction: schema violation")

// Kind identifies an on-chain operation with a known layout.
type Kind string

const (
	// PoolSwap is a constant-product pool swap (AMM v4 layout).
	PoolSwap Kind = "pool-swap"
	// CurveBuy buys tokens from a bonding curve.
	CurveBuy Kind = "curve-buy"
	// CurveSell sells tokens into a bonding curve.
	CurveSell Kind = "curve-sell"
	// PoolInit initializes a customizable permissionless DLMM pair.
	PoolInit Kind = "pool-init"
	// BurnTokens burns an SPL token amount.
	BurnTokens Kind = "burn-tokens"
	// CloseAccount closes an SPL token account, reclaiming rent.
	CloseAccount Kind = "close-account"
)

// TradeInstruction is a packed instruction: an ordered account list plus an
// opaque payload. Built once per trade and consumed exactly once; nothing
// mutates it after Build returns.
type TradeInstruction struct {
	programID solana.PublicKey
	accounts  []*solana.AccountMeta
	data      []byte
}

func (ti *TradeInstruction) ProgramID() solana.PublicKey {
	return ti.programID
}

func (ti *TradeInstruction) Accounts() []*solana.AccountMeta {
	return ti.accounts
}

func (ti *TradeInstruction) Data() ([]byte, error) {
	return ti.data, nil
}

var _ solana.Instruction = (*TradeInstruction)(nil)
