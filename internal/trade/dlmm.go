package trade

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/vistara-dev/agentipy/internal/derive"
	"github.com/vistara-dev/agentipy/internal/instruction"
	"github.com/vistara-dev/agentipy/internal/submit"
)

var (
	// ErrInvalidBinStep is returned when the fee cannot be expressed as a
	// whole base factor for the requested bin step.
	ErrInvalidBinStep = errors.New("fee is not representable for bin step")
	// ErrInvalidPrice is returned for non-positive pool prices.
	ErrInvalidPrice = errors.New("price must be positive")
)

// Activation point units for a new pair.
const (
	ActivationTypeSlot      uint8 = 0
	ActivationTypeTimestamp uint8 = 1
)

// PoolParams describe a new concentrated-liquidity pair. Price is quoted as
// token-Y units per token-X unit at the activation bin, in natural (UI)
// terms; decimals adjust it to per-lamport terms before binning.
type PoolParams struct {
	BaseMint      solana.PublicKey
	QuoteMint     solana.PublicKey
	BaseDecimals  uint8
	QuoteDecimals uint8
	Price         float64
	BinStep       uint16
	FeeBps        uint64
	// RoundUp picks the ceiling bin when the price falls between bins.
	RoundUp bool
	// ActivationType selects the unit ActivationPoint is measured in.
	ActivationType uint8
	// ActivationPoint, when non-nil, delays trading until the given slot
	// or unix timestamp, per ActivationType.
	ActivationPoint *uint64
}

// pricePerLamport rescales a UI price into raw per-lamport terms.
func pricePerLamport(price float64, baseDecimals, quoteDecimals uint8) float64 {
	return price * math.Pow10(int(quoteDecimals)-int(baseDecimals))
}

// binIDFromPrice maps a per-lamport price onto the bin grid. Each bin covers
// a (1 + binStep/10000) multiplicative band around bin zero.
func binIDFromPrice(price float64, binStep uint16, roundUp bool) (int32, error) {
	if price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
		return 0, ErrInvalidPrice
	}
	base := 1 + float64(binStep)/10000
	id := math.Log(price) / math.Log(base)
	if roundUp {
		return int32(math.Ceil(id)), nil
	}
	return int32(math.Floor(id)), nil
}

// baseFactorForFee converts a fee in basis points into the pair's base
// factor. The fee must divide evenly, otherwise the on-chain fee would not
// match what the caller asked for.
func baseFactorForFee(feeBps uint64, binStep uint16) (uint16, error) {
	if binStep == 0 {
		return 0, ErrInvalidBinStep
	}
	scaled := feeBps * 10000
	if scaled%uint64(binStep) != 0 {
		return 0, fmt.Errorf("%w: %d bps at step %d", ErrInvalidBinStep, feeBps, binStep)
	}
	factor := scaled / uint64(binStep)
	if factor > math.MaxUint16 {
		return 0, fmt.Errorf("%w: base factor %d exceeds u16", ErrInvalidBinStep, factor)
	}
	return uint16(factor), nil
}

// CreatePool initialises a permissionless concentrated-liquidity pair with
// the wallet as funder. Mints are canonically ordered before derivation, so
// callers may pass base and quote in either order.
func (s *Service) CreatePool(ctx context.Context, params PoolParams) (submit.Receipt, error) {
	mintX, mintY := derive.SortMints(params.BaseMint, params.QuoteMint)
	decX, decY := params.BaseDecimals, params.QuoteDecimals
	price := params.Price
	if !mintX.Equals(params.BaseMint) {
		decX, decY = decY, decX
		if price != 0 {
			price = 1 / price
		}
	}

	rawPrice := pricePerLamport(price, decX, decY)
	activeID, err := binIDFromPrice(rawPrice, params.BinStep, params.RoundUp)
	if err != nil {
		return submit.Receipt{}, err
	}
	baseFactor, err := baseFactorForFee(params.FeeBps, params.BinStep)
	if err != nil {
		return submit.Receipt{}, err
	}

	lbPair, _, err := derive.LbPair(mintX, mintY, DlmmProgramID)
	if err != nil {
		return submit.Receipt{}, err
	}
	reserveX, _, err := derive.Reserve(mintX, lbPair, DlmmProgramID)
	if err != nil {
		return submit.Receipt{}, err
	}
	reserveY, _, err := derive.Reserve(mintY, lbPair, DlmmProgramID)
	if err != nil {
		return submit.Receipt{}, err
	}
	oracle, _, err := derive.Oracle(lbPair, DlmmProgramID)
	if err != nil {
		return submit.Receipt{}, err
	}

	bitmapExtension := DlmmProgramID
	arrayIndex := derive.BinIDToArrayIndex(int64(activeID))
	if derive.IsOverflowDefaultBitmap(arrayIndex) {
		bitmapExtension, _, err = derive.BitmapExtension(lbPair, DlmmProgramID)
		if err != nil {
			return submit.Receipt{}, err
		}
	}

	funderTokenX, err := s.wallet.ATA(mintX)
	if err != nil {
		return submit.Receipt{}, err
	}

	s.logger.Info("creating pair",
		zap.String("lb_pair", lbPair.String()),
		zap.Int32("active_id", activeID),
		zap.Uint16("bin_step", params.BinStep),
		zap.Uint16("base_factor", baseFactor))

	args := []uint64{
		uint64(uint32(activeID)),
		uint64(params.BinStep),
		uint64(baseFactor),
		uint64(params.ActivationType),
		0, // no alpha vault
	}
	if params.ActivationPoint != nil {
		args = append(args, *params.ActivationPoint)
	}

	ix, err := instruction.Build(instruction.PoolInit, DlmmProgramID,
		[]solana.PublicKey{
			lbPair,
			bitmapExtension,
			mintX,
			mintY,
			reserveX,
			reserveY,
			oracle,
			funderTokenX,
			s.wallet.PublicKey,
			solana.TokenProgramID,
			solana.SystemProgramID,
			solana.SysVarRentPubkey,
		},
		args,
	)
	if err != nil {
		return submit.Receipt{}, err
	}
	return s.submitter.Submit(ctx, []solana.Instruction{ix})
}
