package curve

import "github.com/holiman/uint256"

// QuoteConstantProduct prices a swap against a constant-product pool.
//
//	effective_in = amount_in * (10000 - fee_bps) / 10000
//	k            = reserve_in * reserve_out
//	amount_out   = reserve_out - k / (reserve_in + effective_in)
//
// Every division floors, matching the on-chain program. The fee is taken from
// the input side, so an amount small enough for the fee to consume it
// entirely is rejected rather than quoted at zero.
func QuoteConstantProduct(snap PoolSnapshot, amountIn uint64, dir Direction, slippageBps uint64) (QuoteResult, error) {
	if err := validateSlippage(slippageBps); err != nil {
		return QuoteResult{}, err
	}
	if snap.BaseReserve == 0 || snap.QuoteReserve == 0 {
		return QuoteResult{}, ErrInvalidPoolState
	}
	if snap.FeeBps >= BasisPointMax {
		return QuoteResult{}, ErrInvalidPoolState
	}
	if amountIn == 0 {
		return QuoteResult{}, ErrInvalidAmount
	}

	reserveIn, reserveOut := snap.BaseReserve, snap.QuoteReserve
	if dir == QuoteToBase {
		reserveIn, reserveOut = snap.QuoteReserve, snap.BaseReserve
	}

	amountOut, err := constantProductOut(reserveIn, reserveOut, amountIn, snap.FeeBps)
	if err != nil {
		return QuoteResult{}, err
	}

	minOut := applySlippageFloor(amountOut, slippageBps)
	return QuoteResult{
		AmountIn:     amountIn,
		AmountOut:    amountOut,
		MinAmountOut: minOut,
		FeeBps:       snap.FeeBps,
		SlippageBps:  slippageBps,
	}, nil
}

// constantProductOut applies the fee to the input and walks the invariant.
// Intermediates use 256-bit words: reserve_in * reserve_out alone can reach
// 2^128 for full-range u64 reserves.
func constantProductOut(reserveIn, reserveOut, amountIn, feeBps uint64) (uint64, error) {
	effectiveIn := new(uint256.Int).Mul(
		uint256.NewInt(amountIn),
		uint256.NewInt(BasisPointMax-feeBps),
	)
	effectiveIn.Div(effectiveIn, uint256.NewInt(BasisPointMax))
	if effectiveIn.IsZero() {
		return 0, ErrInvalidAmount
	}

	rIn := uint256.NewInt(reserveIn)
	rOut := uint256.NewInt(reserveOut)

	k := new(uint256.Int).Mul(rIn, rOut)
	newReserveOut := new(uint256.Int).Div(k, new(uint256.Int).Add(rIn, effectiveIn))
	amountOut := new(uint256.Int).Sub(rOut, newReserveOut)

	return amountOut.Uint64(), nil
}
