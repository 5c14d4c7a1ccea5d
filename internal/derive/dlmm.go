package derive

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// DLMM pools shard their bins into fixed-size arrays addressed by a signed
// array index, tracked in a 512-slot bitmap with an extension account for
// indices outside that range.
const (
	BinArraySize       = 70
	BinArrayBitmapSize = 512
)

// ILMBase is the base seed account for customizable permissionless pair
// derivation.
var ILMBase = solana.MustPublicKeyFromBase58("MFGQxwAmB91SwuYX36okv2Qmdc9aMuHTwWGUrp4AtB1")

// LbPair derives the pair account for two token mints. The mints are sorted
// canonically first, so argument order does not matter.
func LbPair(tokenX, tokenY, programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	minKey, maxKey := SortMints(tokenX, tokenY)
	seeds := [][]byte{ILMBase.Bytes(), minKey.Bytes(), maxKey.Bytes()}
	return FindProgramAddress(seeds, programID)
}

// Reserve derives the pair's vault account for one of its token mints.
func Reserve(mint, lbPair, programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return FindProgramAddress([][]byte{lbPair.Bytes(), mint.Bytes()}, programID)
}

// Oracle derives the price oracle account for a pair.
func Oracle(lbPair, programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return FindProgramAddress([][]byte{[]byte("oracle"), lbPair.Bytes()}, programID)
}

// BinArray derives the bin array account for a signed array index. The index
// is encoded as a little-endian signed 64-bit integer, matching the on-chain
// seed layout for negative indices.
func BinArray(lbPair solana.PublicKey, index int64, programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	var indexBytes [8]byte
	binary.LittleEndian.PutUint64(indexBytes[:], uint64(index))
	seeds := [][]byte{[]byte("bin_array"), lbPair.Bytes(), indexBytes[:]}
	return FindProgramAddress(seeds, programID)
}

// BitmapExtension derives the bin array bitmap extension account for a pair.
func BitmapExtension(lbPair, programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return FindProgramAddress([][]byte{[]byte("bitmap"), lbPair.Bytes()}, programID)
}

// BinIDToArrayIndex maps a signed bin id to its bin array index using floor
// division. Truncating division would send bin ids in (-70, 0) to array 0;
// they belong to array -1.
func BinIDToArrayIndex(binID int64) int64 {
	idx := binID / BinArraySize
	if binID%BinArraySize != 0 && binID < 0 {
		idx--
	}
	return idx
}

// IsOverflowDefaultBitmap reports whether a bin array index falls outside the
// pair's internal bitmap and therefore needs the bitmap extension account.
func IsOverflowDefaultBitmap(arrayIndex int64) bool {
	return arrayIndex < -BinArrayBitmapSize || arrayIndex > BinArrayBitmapSize-1
}
