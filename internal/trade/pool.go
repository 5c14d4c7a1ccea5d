package trade

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/vistara-dev/agentipy/internal/curve"
	"github.com/vistara-dev/agentipy/internal/instruction"
	"github.com/vistara-dev/agentipy/internal/snapshot"
	"github.com/vistara-dev/agentipy/internal/submit"
)

// PoolKeys are the resolved accounts of one AMM v4 pool and its market. The
// market authority is derived from the market id and vault-signer nonce when
// the pool is registered, not supplied ad hoc by trade callers.
type PoolKeys struct {
	AmmID            solana.PublicKey
	BaseMint         solana.PublicKey
	QuoteMint        solana.PublicKey
	BaseDecimals     uint8
	QuoteDecimals    uint8
	OpenOrders       solana.PublicKey
	TargetOrders     solana.PublicKey
	BaseVault        solana.PublicKey
	QuoteVault       solana.PublicKey
	MarketID         solana.PublicKey
	MarketAuthority  solana.PublicKey
	MarketBaseVault  solana.PublicKey
	MarketQuoteVault solana.PublicKey
	Bids             solana.PublicKey
	Asks             solana.PublicKey
	EventQueue       solana.PublicKey
	// FeeBps is the pool trade fee; 0 falls back to the service default.
	FeeBps uint64
}

// fetchPoolSnapshot reads both vault balances in a single request so the
// snapshot reflects one ledger state, then assembles the pricing view.
func (s *Service) fetchPoolSnapshot(ctx context.Context, keys PoolKeys) (curve.PoolSnapshot, error) {
	datas, err := s.reader.MultipleAccountData(ctx, keys.BaseVault, keys.QuoteVault)
	if err != nil {
		return curve.PoolSnapshot{}, fmt.Errorf("read pool vaults: %w", err)
	}
	baseVault, err := snapshot.DecodeTokenAccount(datas[0])
	if err != nil {
		return curve.PoolSnapshot{}, fmt.Errorf("base vault: %w", err)
	}
	quoteVault, err := snapshot.DecodeTokenAccount(datas[1])
	if err != nil {
		return curve.PoolSnapshot{}, fmt.Errorf("quote vault: %w", err)
	}

	feeBps := keys.FeeBps
	if feeBps == 0 {
		feeBps = s.opts.AmmFeeBps
	}
	return snapshot.NewPoolSnapshot(
		keys.BaseMint, keys.QuoteMint,
		keys.BaseDecimals, keys.QuoteDecimals,
		baseVault.Amount, quoteVault.Amount,
		feeBps,
	)
}

// BuyWithPool spends quote units acquiring the pool's base token.
func (s *Service) BuyWithPool(ctx context.Context, keys PoolKeys, quoteIn, slippageBps uint64) (submit.Receipt, error) {
	return s.SwapOnPool(ctx, keys, quoteIn, curve.QuoteToBase, slippageBps)
}

// SellWithPool sells base units for the pool's quote token.
func (s *Service) SellWithPool(ctx context.Context, keys PoolKeys, baseIn, slippageBps uint64) (submit.Receipt, error) {
	return s.SwapOnPool(ctx, keys, baseIn, curve.BaseToQuote, slippageBps)
}

// SwapOnPool swaps against a constant-product pool. Direction BaseToQuote
// spends base units for quote units; QuoteToBase the reverse. The quote and
// the packed instruction come from the same snapshot read.
func (s *Service) SwapOnPool(ctx context.Context, keys PoolKeys, amountIn uint64, dir curve.Direction, slippageBps uint64) (submit.Receipt, error) {
	snap, err := s.fetchPoolSnapshot(ctx, keys)
	if err != nil {
		return submit.Receipt{}, err
	}

	quote, err := curve.QuoteConstantProduct(snap, amountIn, dir, slippageBps)
	if err != nil {
		return submit.Receipt{}, err
	}

	inMint, outMint := keys.BaseMint, keys.QuoteMint
	if dir == curve.QuoteToBase {
		inMint, outMint = keys.QuoteMint, keys.BaseMint
	}
	sourceATA, err := s.wallet.ATA(inMint)
	if err != nil {
		return submit.Receipt{}, err
	}
	destATA, err := s.wallet.ATA(outMint)
	if err != nil {
		return submit.Receipt{}, err
	}

	s.logger.Info("pool swap quote",
		zap.String("amm", keys.AmmID.String()),
		zap.Uint64("amount_in", quote.AmountIn),
		zap.Uint64("amount_out", quote.AmountOut),
		zap.Uint64("min_amount_out", quote.MinAmountOut),
		zap.Uint64("fee_bps", quote.FeeBps))

	ix, err := instruction.Build(instruction.PoolSwap, AmmV4ProgramID,
		[]solana.PublicKey{
			solana.TokenProgramID,
			keys.AmmID,
			AmmV4Authority,
			keys.OpenOrders,
			keys.TargetOrders,
			keys.BaseVault,
			keys.QuoteVault,
			OpenBookProgramID,
			keys.MarketID,
			keys.Bids,
			keys.Asks,
			keys.EventQueue,
			keys.MarketBaseVault,
			keys.MarketQuoteVault,
			keys.MarketAuthority,
			sourceATA,
			destATA,
			s.wallet.PublicKey,
		},
		[]uint64{quote.AmountIn, quote.MinAmountOut},
	)
	if err != nil {
		return submit.Receipt{}, err
	}

	instructions, err := s.withUserATA(ctx, destATA, outMint, ix)
	if err != nil {
		return submit.Receipt{}, err
	}
	return s.submitter.Submit(ctx, instructions)
}
