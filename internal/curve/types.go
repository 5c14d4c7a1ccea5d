// Package curve computes swap quotes over in-memory pool and bonding-curve
// snapshots. All arithmetic is integer and reproduces on-chain semantics:
// outputs round down, maximum inputs round up, and a quote is never allowed
// to round in the trader's favor.
package curve

import (
	"errors"

	"github.com/gagliardetto/solana-go"
)

// BasisPointMax is the denominator for fee and slippage basis points.
const BasisPointMax = 10_000

var (
	// ErrInvalidAmount is returned when the input amount is zero or the fee
	// consumes it entirely.
	ErrInvalidAmount = errors.New("curve: invalid input amount")
	// ErrInvalidPoolState is returned when a pool snapshot carries an empty
	// reserve. The snapshot is unusable; the caller must fetch a new one.
	ErrInvalidPoolState = errors.New("curve: invalid pool state")
	// ErrInvalidCurveState is returned when a bonding curve snapshot carries
	// an empty virtual reserve.
	ErrInvalidCurveState = errors.New("curve: invalid bonding curve state")
	// ErrInvalidSlippage is returned for slippage outside [0, 10000) bps.
	ErrInvalidSlippage = errors.New("curve: invalid slippage")
)

// Direction selects which side of a pool the trader supplies.
type Direction int

const (
	// BaseToQuote spends base reserve units and receives quote units.
	BaseToQuote Direction = iota
	// QuoteToBase spends quote reserve units and receives base units.
	QuoteToBase
)

// PoolSnapshot is a point-in-time view of a constant-product pool. Reserves
// can change between blocks, so a new quote requires a new snapshot; the
// value itself is never mutated.
type PoolSnapshot struct {
	BaseMint      solana.PublicKey
	QuoteMint     solana.PublicKey
	BaseDecimals  uint8
	QuoteDecimals uint8
	BaseReserve   uint64
	QuoteReserve  uint64
	FeeBps        uint64
}

// BondingCurveState is a point-in-time view of a virtual-reserve bonding
// curve. Pricing uses the virtual reserves; the real reserves track vault
// custody and graduation progress.
type BondingCurveState struct {
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool
}

// QuoteResult is the computed outcome of a quote. MinAmountOut bounds what the
// trader accepts when receiving the variable asset; MaxAmountIn bounds what
// the trader is willing to spend when supplying the variable side. Only the
// bound matching the operation is populated.
type QuoteResult struct {
	AmountIn     uint64
	AmountOut    uint64
	MinAmountOut uint64
	MaxAmountIn  uint64
	FeeBps       uint64
	SlippageBps  uint64
}
