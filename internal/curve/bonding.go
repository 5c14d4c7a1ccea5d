package curve

import "math"

// LamportsPerSol is the base-currency scale.
const LamportsPerSol = 1_000_000_000

// QuoteBondingCurveBuy prices a token purchase against the curve's virtual
// reserves for a fixed lamport spend. The returned quote carries the token
// amount the spend buys and the slippage-padded maximum lamport cost the
// trader signs off on: the on-chain buy takes (token_amount, max_sol_cost).
func QuoteBondingCurveBuy(state BondingCurveState, lamportsIn, feeBps, slippageBps uint64) (QuoteResult, error) {
	if err := validateSlippage(slippageBps); err != nil {
		return QuoteResult{}, err
	}
	if state.VirtualTokenReserves == 0 || state.VirtualSolReserves == 0 {
		return QuoteResult{}, ErrInvalidCurveState
	}
	if feeBps >= BasisPointMax {
		return QuoteResult{}, ErrInvalidCurveState
	}
	if lamportsIn == 0 {
		return QuoteResult{}, ErrInvalidAmount
	}

	tokensOut, err := constantProductOut(state.VirtualSolReserves, state.VirtualTokenReserves, lamportsIn, feeBps)
	if err != nil {
		return QuoteResult{}, err
	}

	return QuoteResult{
		AmountIn:    lamportsIn,
		AmountOut:   tokensOut,
		MaxAmountIn: applySlippageCeil(lamportsIn, slippageBps),
		FeeBps:      feeBps,
		SlippageBps: slippageBps,
	}, nil
}

// QuoteBondingCurveSell prices a token sale against the curve's virtual
// reserves. The quote carries the lamport proceeds and the slippage-floored
// minimum the on-chain sell enforces as min_sol_output.
func QuoteBondingCurveSell(state BondingCurveState, tokensIn, feeBps, slippageBps uint64) (QuoteResult, error) {
	if err := validateSlippage(slippageBps); err != nil {
		return QuoteResult{}, err
	}
	if state.VirtualTokenReserves == 0 || state.VirtualSolReserves == 0 {
		return QuoteResult{}, ErrInvalidCurveState
	}
	if feeBps >= BasisPointMax {
		return QuoteResult{}, ErrInvalidCurveState
	}
	if tokensIn == 0 {
		return QuoteResult{}, ErrInvalidAmount
	}

	lamportsOut, err := constantProductOut(state.VirtualTokenReserves, state.VirtualSolReserves, tokensIn, feeBps)
	if err != nil {
		return QuoteResult{}, err
	}

	return QuoteResult{
		AmountIn:     tokensIn,
		AmountOut:    lamportsOut,
		MinAmountOut: applySlippageFloor(lamportsOut, slippageBps),
		FeeBps:       feeBps,
		SlippageBps:  slippageBps,
	}, nil
}

// SpotPrice returns the curve's marginal price in SOL per whole token,
// scaled by the decimal bases of the two assets. Display-level only; trade
// sizing goes through the integer quote functions.
func SpotPrice(state BondingCurveState, tokenDecimals uint8) (float64, error) {
	if state.VirtualTokenReserves == 0 || state.VirtualSolReserves == 0 {
		return 0, ErrInvalidCurveState
	}
	sol := float64(state.VirtualSolReserves) / LamportsPerSol
	tokens := float64(state.VirtualTokenReserves) / math.Pow10(int(tokenDecimals))
	return sol / tokens, nil
}
