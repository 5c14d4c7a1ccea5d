package curve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplySlippageCeil(t *testing.T) {
	assert.Equal(t, uint64(10_500), applySlippageCeil(10_000, 500))
	// Padding never drops below the quoted amount.
	assert.Equal(t, uint64(1), applySlippageCeil(1, 0))
}

func TestApplySlippageCeil_SaturatesAtMaxUint64(t *testing.T) {
	// The padded maximum would exceed u64; saturate instead of wrapping.
	assert.Equal(t, uint64(math.MaxUint64), applySlippageCeil(math.MaxUint64, 500))
	assert.Equal(t, uint64(math.MaxUint64), applySlippageCeil(math.MaxUint64-1, 1))
	// Exactly representable stays exact.
	assert.Equal(t, uint64(math.MaxUint64), applySlippageCeil(math.MaxUint64, 0))
}

func TestApplySlippageFloor_NeverExceedsAmount(t *testing.T) {
	assert.Equal(t, uint64(math.MaxUint64), applySlippageFloor(math.MaxUint64, 0))
	assert.Less(t, applySlippageFloor(math.MaxUint64, 1), uint64(math.MaxUint64))
}
