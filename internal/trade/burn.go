package trade

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vistara-dev/agentipy/internal/instruction"
	"github.com/vistara-dev/agentipy/internal/snapshot"
	"github.com/vistara-dev/agentipy/internal/submit"
)

// maxConcurrentCleanups bounds parallel burn-and-close submissions so a large
// sweep does not hammer the RPC node.
const maxConcurrentCleanups = 4

// BurnAndCloseAccount burns the full balance of a token account and closes
// it, reclaiming its rent to the wallet. An already-empty account is just
// closed. Both instructions ride a single transaction so the account can
// never be left burned but open.
func (s *Service) BurnAndCloseAccount(ctx context.Context, tokenAccount solana.PublicKey) (submit.Receipt, error) {
	data, _, err := s.reader.AccountData(ctx, tokenAccount)
	if err != nil {
		return submit.Receipt{}, fmt.Errorf("read token account: %w", err)
	}
	acct, err := snapshot.DecodeTokenAccount(data)
	if err != nil {
		return submit.Receipt{}, err
	}
	if !acct.Owner.Equals(s.wallet.PublicKey) {
		return submit.Receipt{}, fmt.Errorf("token account %s not owned by wallet", tokenAccount)
	}

	var instructions []solana.Instruction
	if acct.Amount > 0 {
		burn, err := instruction.Build(instruction.BurnTokens, solana.TokenProgramID,
			[]solana.PublicKey{tokenAccount, acct.Mint, s.wallet.PublicKey},
			[]uint64{acct.Amount})
		if err != nil {
			return submit.Receipt{}, err
		}
		instructions = append(instructions, burn)
	}

	closeIx, err := instruction.Build(instruction.CloseAccount, solana.TokenProgramID,
		[]solana.PublicKey{tokenAccount, s.wallet.PublicKey, s.wallet.PublicKey},
		nil)
	if err != nil {
		return submit.Receipt{}, err
	}
	instructions = append(instructions, closeIx)

	s.logger.Info("burning and closing token account",
		zap.String("account", tokenAccount.String()),
		zap.String("mint", acct.Mint.String()),
		zap.Uint64("balance", acct.Amount))

	return s.submitter.Submit(ctx, instructions)
}

// CleanupResult pairs one token account with the outcome of its sweep.
type CleanupResult struct {
	TokenAccount solana.PublicKey
	Receipt      submit.Receipt
	Err          error
}

// BurnAndCloseAll sweeps a set of token accounts concurrently. Each account
// gets its own transaction with its own blockhash, so one failure never
// blocks the rest; per-account outcomes are reported individually and the
// returned error aggregates any that did not confirm.
func (s *Service) BurnAndCloseAll(ctx context.Context, tokenAccounts []solana.PublicKey) ([]CleanupResult, error) {
	results := make([]CleanupResult, len(tokenAccounts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentCleanups)
	for i, account := range tokenAccounts {
		g.Go(func() error {
			receipt, err := s.BurnAndCloseAccount(gctx, account)
			results[i] = CleanupResult{TokenAccount: account, Receipt: receipt, Err: err}
			return nil
		})
	}
	// Workers never return errors; Wait only observes context cancellation.
	_ = g.Wait()

	var failed []error
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed = append(failed, fmt.Errorf("%s: %w", r.TokenAccount, r.Err))
		case r.Receipt.Status != submit.StatusConfirmed:
			failed = append(failed, fmt.Errorf("%s: %s", r.TokenAccount, r.Receipt.Status))
		}
	}
	if len(failed) > 0 {
		return results, errors.Join(failed...)
	}
	return results, nil
}
