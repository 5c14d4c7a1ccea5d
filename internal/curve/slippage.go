package curve

import (
	"math"

	"github.com/holiman/uint256"
)

func validateSlippage(slippageBps uint64) error {
	if slippageBps >= BasisPointMax {
		return ErrInvalidSlippage
	}
	return nil
}

// applySlippageFloor computes the minimum acceptable output:
// floor(amount * (10000 - slippage_bps) / 10000). Never exceeds amount.
func applySlippageFloor(amount, slippageBps uint64) uint64 {
	v := new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(BasisPointMax-slippageBps))
	v.Div(v, uint256.NewInt(BasisPointMax))
	return v.Uint64()
}

// applySlippageCeil computes the maximum tolerated input:
// ceil(amount * (10000 + slippage_bps) / 10000). Never below amount.
// Saturates at MaxUint64 rather than wrapping.
func applySlippageCeil(amount, slippageBps uint64) uint64 {
	v := new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(BasisPointMax+slippageBps))
	v.Add(v, uint256.NewInt(BasisPointMax-1))
	v.Div(v, uint256.NewInt(BasisPointMax))
	if !v.IsUint64() {
		return math.MaxUint64
	}
	return v.Uint64()
}
