// Package trade wires the core together: resolve addresses, read a state
// snapshot, quote, pack the instruction, and submit. Each trade runs as one
// logical task with no internal parallelism; the snapshot is read once and
// the instruction built from it stays consistent with that read. Unrelated
// trades may run concurrently: all per-call state is immutable.
package trade

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/vistara-dev/agentipy/internal/submit"
	"github.com/vistara-dev/agentipy/internal/wallet"
)

// Well-known program addresses.
var (
	CurveProgramID      = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
	CurveGlobalAddress  = solana.MustPublicKeyFromBase58("4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf")
	CurveEventAuthority = solana.MustPublicKeyFromBase58("Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1")
	AmmV4ProgramID      = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	AmmV4Authority      = solana.MustPublicKeyFromBase58("5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1")
	OpenBookProgramID   = solana.MustPublicKeyFromBase58("srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX")
	DlmmProgramID       = solana.MustPublicKeyFromBase58("LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo")
	WrappedSolMint      = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
)

// Reader is the account-read surface a trade needs. *solclient.Client
// satisfies it.
type Reader interface {
	AccountData(ctx context.Context, address solana.PublicKey) ([]byte, solana.PublicKey, error)
	MultipleAccountData(ctx context.Context, addresses ...solana.PublicKey) ([][]byte, error)
	TokenBalance(ctx context.Context, tokenAccount solana.PublicKey) (uint64, error)
}

// Submitter runs one Building->terminal submission cycle.
type Submitter interface {
	Submit(ctx context.Context, instructions []solana.Instruction, extraSigners ...solana.PrivateKey) (submit.Receipt, error)
}

// Options carries trade defaults. Explicit values at call sites override
// them; there is no ambient global configuration.
type Options struct {
	// DefaultSlippageBps is the slippage tolerance used by callers that do
	// not pick their own.
	DefaultSlippageBps uint64
	// AmmFeeBps is the pool trade fee when the pool does not expose one.
	AmmFeeBps uint64
	// CurveFeeBps is the fallback curve fee when the global account read
	// is skipped or fails closed.
	CurveFeeBps uint64
}

// DefaultOptions mirrors mainnet defaults: 25 bps AMM fee, 100 bps curve
// fee, 5% slippage.
func DefaultOptions() Options {
	return Options{
		DefaultSlippageBps: 500,
		AmmFeeBps:          25,
		CurveFeeBps:        100,
	}
}

// Service is a stateless front-end over the core components. Safe for
// concurrent use.
type Service struct {
	reader    Reader
	wallet    *wallet.Wallet
	submitter Submitter
	logger    *zap.Logger
	opts      Options
}

// NewService wires a trade service.
func NewService(reader Reader, w *wallet.Wallet, submitter Submitter, opts Options, logger *zap.Logger) *Service {
	if opts.DefaultSlippageBps == 0 {
		opts = DefaultOptions()
	}
	return &Service{
		reader:    reader,
		wallet:    w,
		submitter: submitter,
		logger:    logger.Named("trade"),
		opts:      opts,
	}
}

// DefaultSlippageBps exposes the configured default for callers that do not
// pick their own tolerance.
func (s *Service) DefaultSlippageBps() uint64 {
	return s.opts.DefaultSlippageBps
}
