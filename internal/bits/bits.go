// Package bits provides low-level bit manipulation primitives shared by the
// collection header's inline count field and the hamt package's
// popcount-indexed child arrays.
package bits

import "math/bits"

// PopCount64 returns the number of set bits below bitNumber in bitmap,
// i.e. the packed-array index a child at that bit would occupy.
func PopCount64(bitmap uint64, bitNumber uint) int {
	return bits.OnesCount64(bitmap & ((uint64(1) << bitNumber) - 1))
}

// Slice6 extracts the 6-bit slice of hash at the given trie level (0 = the
// least significant 6 bits), matching kBitShift in the HAMT wire format.
func Slice6(hash uint32, level uint) uint {
	return uint((hash >> (level * 6)) & 0x3F)
}

// InlineCountSentinel is the reserved value of the collection header's
// 11-bit inline count field that signals a little-endian varint extension
// follows. See fleece.kInlineCountSentinel for why this is 0x07FF rather
// than the literal 0x0FFF named by the original encoder: 0x0FFF cannot
// itself be represented in 11 bits, so it can never be the threshold that
// field's own values are compared against.
const InlineCountSentinel = 0x07FF

// FitsInNarrow reports whether n fits directly in the 2-byte narrow
// pointer/count encoding used by the collection header (11 bits), without
// a varint extension.
func FitsInNarrow(n uint64) bool {
	return n < InlineCountSentinel
}
