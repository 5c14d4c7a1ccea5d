// Package submit drives a signed trade through the network: fetch a fresh
// blockhash anchor, attach compute-budget instructions, sign, broadcast, and
// poll for confirmation under a bounded attempt budget.
//
// The state machine is Building -> Signed -> Broadcast -> {Confirmed, Failed,
// TimedOut}. Each Submit call is single-shot: batch callers run one full
// cycle per item and never share an anchor across items, since anchors expire
// on the network side.
package submit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vistara-dev/agentipy/internal/solclient"
	"github.com/vistara-dev/agentipy/internal/wallet"
)

// ErrNoInstructions is returned when Submit is called with nothing to send.
var ErrNoInstructions = errors.New("submit: no instructions")

// Ledger is the network surface the submitter depends on. *solclient.Client
// satisfies it; tests substitute fakes.
type Ledger interface {
	LatestAnchor(ctx context.Context) (solclient.Anchor, error)
	Broadcast(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	Status(ctx context.Context, sig solana.Signature) (solclient.SignatureStatus, error)
}

// Config bounds one submission cycle.
type Config struct {
	// ComputeUnitLimit caps execution; 0 skips the limit instruction.
	ComputeUnitLimit uint32
	// ComputeUnitPrice is the priority fee in micro-lamports per compute
	// unit; 0 skips the price instruction.
	ComputeUnitPrice uint64
	// PollInterval is the fixed delay between confirmation polls.
	PollInterval time.Duration
	// MaxPollAttempts bounds the confirmation loop before TimedOut.
	MaxPollAttempts int
	// BroadcastMaxElapsed bounds broadcast retries.
	BroadcastMaxElapsed time.Duration
}

// DefaultConfig matches mainnet expectations: ~3s between polls, 20 polls,
// a minute of confirmation budget overall.
func DefaultConfig() Config {
	return Config{
		ComputeUnitLimit:    100_000,
		ComputeUnitPrice:    100_000,
		PollInterval:        3 * time.Second,
		MaxPollAttempts:     20,
		BroadcastMaxElapsed: 15 * time.Second,
	}
}

// Submitter executes submission cycles. Stateless between calls; safe for
// concurrent use across independent trades.
type Submitter struct {
	ledger Ledger
	wallet *wallet.Wallet
	clock  Clock
	logger *zap.Logger
	cfg    Config
}

// New builds a Submitter. A nil clock selects the system clock.
func New(ledger Ledger, w *wallet.Wallet, cfg Config, logger *zap.Logger, clock Clock) *Submitter {
	if clock == nil {
		clock = SystemClock
	}
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = 20
	}
	return &Submitter{
		ledger: ledger,
		wallet: w,
		clock:  clock,
		logger: logger.Named("submitter"),
		cfg:    cfg,
	}
}

// Submit runs one full cycle for the given trade instructions. The receipt is
// always populated with a terminal status; the error is non-nil only when the
// cycle broke before the network could have executed anything (anchor fetch
// or broadcast failure), in which case the caller must restart from Building
// with a fresh anchor rather than resubmit stale bytes.
func (s *Submitter) Submit(ctx context.Context, instructions []solana.Instruction, extraSigners ...solana.PrivateKey) (Receipt, error) {
	if len(instructions) == 0 {
		return Receipt{Status: StatusFailed, Err: ErrNoInstructions.Error()}, ErrNoInstructions
	}

	logger := s.logger.With(zap.String("correlation_id", uuid.New().String()))

	// Building: the anchor is fetched immediately before signing, never
	// cached; the network rejects anchors older than its validity window.
	anchor, err := s.ledger.LatestAnchor(ctx)
	if err != nil {
		err = fmt.Errorf("submit: fetch anchor: %w", err)
		return Receipt{Status: StatusFailed, Err: err.Error()}, err
	}

	all := make([]solana.Instruction, 0, len(instructions)+2)
	all = append(all, s.budgetInstructions()...)
	all = append(all, instructions...)

	tx, err := solana.NewTransaction(all, anchor.Blockhash, solana.TransactionPayer(s.wallet.PublicKey))
	if err != nil {
		err = fmt.Errorf("submit: build transaction: %w", err)
		return Receipt{Status: StatusFailed, Err: err.Error()}, err
	}

	// Signed: all signers sign over the final bytes.
	if err := s.wallet.SignTransaction(tx, extraSigners...); err != nil {
		err = fmt.Errorf("submit: %w", err)
		return Receipt{Status: StatusFailed, Err: err.Error()}, err
	}

	// Broadcast: resending identical bytes is idempotent (same signature),
	// so transient transport errors retry under a bounded backoff.
	sig, err := s.broadcast(ctx, tx)
	if err != nil {
		err = fmt.Errorf("submit: broadcast: %w", err)
		return Receipt{Status: StatusFailed, Err: err.Error()}, err
	}

	logger.Info("transaction broadcast",
		zap.String("signature", sig.String()),
		zap.Uint64("last_valid_block_height", anchor.LastValidBlockHeight))

	return s.awaitConfirmation(ctx, sig, logger), nil
}

func (s *Submitter) budgetInstructions() []solana.Instruction {
	var out []solana.Instruction
	if s.cfg.ComputeUnitLimit > 0 {
		out = append(out, computebudget.NewSetComputeUnitLimitInstruction(s.cfg.ComputeUnitLimit).Build())
	}
	if s.cfg.ComputeUnitPrice > 0 {
		out = append(out, computebudget.NewSetComputeUnitPriceInstruction(s.cfg.ComputeUnitPrice).Build())
	}
	return out
}

func (s *Submitter) broadcast(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	op := func() (solana.Signature, error) {
		return s.ledger.Broadcast(ctx, tx)
	}
	opts := []backoff.RetryOption{
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
	}
	if s.cfg.BroadcastMaxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(s.cfg.BroadcastMaxElapsed))
	}
	return backoff.Retry(ctx, op, opts...)
}

// awaitConfirmation polls at a fixed interval up to the attempt budget.
// Executed-with-error fails immediately: a transaction that ran and errored
// cannot succeed on retry with the same anchor. A missing record keeps
// polling; budget exhaustion is TimedOut, never silently Confirmed or Failed.
func (s *Submitter) awaitConfirmation(ctx context.Context, sig solana.Signature, logger *zap.Logger) Receipt {
	receipt := Receipt{Signature: sig, Status: StatusPending}

	for attempt := 1; attempt <= s.cfg.MaxPollAttempts; attempt++ {
		receipt.Attempts = attempt

		status, err := s.ledger.Status(ctx, sig)
		if err != nil {
			// Transient poll failure; the attempt budget still bounds us.
			logger.Warn("status poll failed", zap.Int("attempt", attempt), zap.Error(err))
		} else if status.Found {
			receipt.Slot = status.Slot
			if status.Err != "" {
				receipt.Status = StatusFailed
				receipt.Err = status.Err
				logger.Warn("transaction executed with error",
					zap.String("signature", sig.String()),
					zap.String("ledger_error", status.Err),
					zap.Int("attempt", attempt))
				return receipt
			}
			receipt.Status = StatusConfirmed
			logger.Info("transaction confirmed",
				zap.String("signature", sig.String()),
				zap.Uint64("slot", status.Slot),
				zap.Int("attempt", attempt))
			return receipt
		}

		if attempt == s.cfg.MaxPollAttempts {
			break
		}
		if err := s.clock.Sleep(ctx, s.cfg.PollInterval); err != nil {
			receipt.Status = StatusTimedOut
			receipt.Err = err.Error()
			return receipt
		}
	}

	receipt.Status = StatusTimedOut
	logger.Warn("confirmation attempts exhausted",
		zap.String("signature", sig.String()),
		zap.Int("attempts", receipt.Attempts))
	return receipt
}
