package trade

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"go.uber.org/zap"

	"github.com/vistara-dev/agentipy/internal/curve"
	"github.com/vistara-dev/agentipy/internal/derive"
	"github.com/vistara-dev/agentipy/internal/instruction"
	"github.com/vistara-dev/agentipy/internal/snapshot"
	"github.com/vistara-dev/agentipy/internal/solclient"
	"github.com/vistara-dev/agentipy/internal/submit"
)

// curveTokenDecimals is the fixed decimal scale of curve-launched mints.
const curveTokenDecimals = 6

// curveAccounts are the resolved addresses one bonding-curve trade needs.
type curveAccounts struct {
	bondingCurve           solana.PublicKey
	associatedBondingCurve solana.PublicKey
	userTokenAccount       solana.PublicKey
	feeRecipient           solana.PublicKey
	feeBps                 uint64
}

// resolveCurveAccounts derives the curve addresses for a mint and reads the
// program's global account for the fee recipient and fee rate. Derived
// addresses are never invented by the caller.
func (s *Service) resolveCurveAccounts(ctx context.Context, mint solana.PublicKey) (curveAccounts, error) {
	bondingCurve, _, err := derive.BondingCurve(mint, CurveProgramID)
	if err != nil {
		return curveAccounts{}, fmt.Errorf("derive bonding curve: %w", err)
	}
	associatedCurve, err := derive.AssociatedTokenAccount(bondingCurve, mint)
	if err != nil {
		return curveAccounts{}, fmt.Errorf("derive associated bonding curve: %w", err)
	}
	userATA, err := s.wallet.ATA(mint)
	if err != nil {
		return curveAccounts{}, err
	}

	globalData, _, err := s.reader.AccountData(ctx, CurveGlobalAddress)
	if err != nil {
		return curveAccounts{}, fmt.Errorf("read curve global account: %w", err)
	}
	global, err := snapshot.DecodeCurveGlobal(globalData)
	if err != nil {
		return curveAccounts{}, err
	}
	feeBps := global.FeeBasisPoints
	if feeBps == 0 {
		feeBps = s.opts.CurveFeeBps
	}

	return curveAccounts{
		bondingCurve:           bondingCurve,
		associatedBondingCurve: associatedCurve,
		userTokenAccount:       userATA,
		feeRecipient:           global.FeeRecipient,
		feeBps:                 feeBps,
	}, nil
}

// fetchCurveState reads and decodes the bonding curve account. A fresh read
// per quote: curve reserves move between blocks.
func (s *Service) fetchCurveState(ctx context.Context, bondingCurve solana.PublicKey) (curve.BondingCurveState, error) {
	data, owner, err := s.reader.AccountData(ctx, bondingCurve)
	if err != nil {
		return curve.BondingCurveState{}, fmt.Errorf("read bonding curve: %w", err)
	}
	if !owner.Equals(CurveProgramID) {
		return curve.BondingCurveState{}, fmt.Errorf("bonding curve %s owned by %s, want %s",
			bondingCurve, owner, CurveProgramID)
	}
	state, err := snapshot.DecodeBondingCurve(data)
	if err != nil {
		return curve.BondingCurveState{}, err
	}
	if state.Complete {
		// Graduated curves no longer trade; liquidity has moved to a pool.
		return curve.BondingCurveState{}, fmt.Errorf("%w: curve for %s is complete",
			curve.ErrInvalidCurveState, bondingCurve)
	}
	return state, nil
}

// BuyOnCurve spends lamports buying tokens from a mint's bonding curve.
// The quote fixes the token amount; slippage pads the maximum lamport cost.
func (s *Service) BuyOnCurve(ctx context.Context, mint solana.PublicKey, lamportsIn, slippageBps uint64) (submit.Receipt, error) {
	accounts, err := s.resolveCurveAccounts(ctx, mint)
	if err != nil {
		return submit.Receipt{}, err
	}
	state, err := s.fetchCurveState(ctx, accounts.bondingCurve)
	if err != nil {
		return submit.Receipt{}, err
	}

	quote, err := curve.QuoteBondingCurveBuy(state, lamportsIn, accounts.feeBps, slippageBps)
	if err != nil {
		return submit.Receipt{}, err
	}

	// Display only; sizing stays integer.
	spot, _ := curve.SpotPrice(state, curveTokenDecimals)

	s.logger.Info("curve buy quote",
		zap.String("mint", mint.String()),
		zap.Float64("spot_price", spot),
		zap.Uint64("lamports_in", quote.AmountIn),
		zap.Uint64("tokens_out", quote.AmountOut),
		zap.Uint64("max_lamports", quote.MaxAmountIn),
		zap.Uint64("fee_bps", quote.FeeBps))

	ix, err := instruction.Build(instruction.CurveBuy, CurveProgramID,
		[]solana.PublicKey{
			CurveGlobalAddress,
			accounts.feeRecipient,
			mint,
			accounts.bondingCurve,
			accounts.associatedBondingCurve,
			accounts.userTokenAccount,
			s.wallet.PublicKey,
			solana.SystemProgramID,
			solana.TokenProgramID,
			solana.SysVarRentPubkey,
			CurveEventAuthority,
			CurveProgramID,
		},
		[]uint64{quote.AmountOut, quote.MaxAmountIn},
	)
	if err != nil {
		return submit.Receipt{}, err
	}

	instructions, err := s.withUserATA(ctx, accounts.userTokenAccount, mint, ix)
	if err != nil {
		return submit.Receipt{}, err
	}
	return s.submitter.Submit(ctx, instructions)
}

// SellOnCurve sells a token amount into the mint's bonding curve. Passing
// amount 0 sells the wallet's full balance.
func (s *Service) SellOnCurve(ctx context.Context, mint solana.PublicKey, tokensIn, slippageBps uint64) (submit.Receipt, error) {
	accounts, err := s.resolveCurveAccounts(ctx, mint)
	if err != nil {
		return submit.Receipt{}, err
	}

	if tokensIn == 0 {
		tokensIn, err = s.reader.TokenBalance(ctx, accounts.userTokenAccount)
		if err != nil {
			return submit.Receipt{}, err
		}
		if tokensIn == 0 {
			return submit.Receipt{}, fmt.Errorf("%w: no token balance to sell", curve.ErrInvalidAmount)
		}
	}

	state, err := s.fetchCurveState(ctx, accounts.bondingCurve)
	if err != nil {
		return submit.Receipt{}, err
	}

	quote, err := curve.QuoteBondingCurveSell(state, tokensIn, accounts.feeBps, slippageBps)
	if err != nil {
		return submit.Receipt{}, err
	}

	s.logger.Info("curve sell quote",
		zap.String("mint", mint.String()),
		zap.Uint64("tokens_in", quote.AmountIn),
		zap.Uint64("lamports_out", quote.AmountOut),
		zap.Uint64("min_lamports", quote.MinAmountOut),
		zap.Uint64("fee_bps", quote.FeeBps))

	ix, err := instruction.Build(instruction.CurveSell, CurveProgramID,
		[]solana.PublicKey{
			CurveGlobalAddress,
			accounts.feeRecipient,
			mint,
			accounts.bondingCurve,
			accounts.associatedBondingCurve,
			accounts.userTokenAccount,
			s.wallet.PublicKey,
			solana.SystemProgramID,
			solana.SPLAssociatedTokenAccountProgramID,
			solana.TokenProgramID,
			CurveEventAuthority,
			CurveProgramID,
		},
		[]uint64{quote.AmountIn, quote.MinAmountOut},
	)
	if err != nil {
		return submit.Receipt{}, err
	}

	return s.submitter.Submit(ctx, []solana.Instruction{ix})
}

// withUserATA prepends an associated-token-account creation instruction when
// the user's token account does not exist yet.
func (s *Service) withUserATA(ctx context.Context, ata, mint solana.PublicKey, ix solana.Instruction) ([]solana.Instruction, error) {
	_, _, err := s.reader.AccountData(ctx, ata)
	switch {
	case err == nil:
		return []solana.Instruction{ix}, nil
	case errors.Is(err, solclient.ErrAccountNotFound):
		createIx := associatedtokenaccount.NewCreateInstruction(
			s.wallet.PublicKey,
			s.wallet.PublicKey,
			mint,
		).Build()
		return []solana.Instruction{createIx, ix}, nil
	default:
		return nil, err
	}
}
