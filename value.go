package fleece

import intbits "github.com/jbro885/fleece/internal/bits"

// Tags occupy the high nibble of a value word's first byte (§3.1). Tags 0-7
// are inline types; any tag with the top bit of the nibble set (8-F) is a
// relative back-pointer, and the remaining 3+12 (narrow) or 3+28 (wide) bits
// of the word encode the pointer's magnitude.
const (
	tagShortInt = 0x0
	tagInt      = 0x1
	tagFloat    = 0x2
	tagSpecial  = 0x3
	tagString   = 0x4
	tagBinary   = 0x5
	tagArray    = 0x6
	tagDict     = 0x7

	pointerTagBit = 0x8 // set in the tag nibble of any pointer word
)

// Special-value low nibbles (tag 3).
const (
	specialNull  = 0x0
	specialFalse = 0x2
	specialTrue  = 0x3
)

// kNarrow / kWide are the two value-word widths.
const (
	kNarrow = 2
	kWide   = 4
)

// kMaxSharedStringSize bounds interning: payloads longer than this are
// always written fresh rather than looked up in the string table.
const kMaxSharedStringSize = 15

// kInlineCountSentinel is the reserved value of the 11-bit inline count
// field (the field's own maximum, 0x07FF) that means "the true count is
// too large for this field; read a little-endian varint extension
// immediately after this word instead." Counts strictly below this value
// are stored directly and exactly in the 11-bit field. See DESIGN.md for
// why this threshold is 0x07FF rather than the source's literal 0x0FFF:
// the 11-bit field cannot hold a count past 0x07FF, so a trigger set
// higher than the field's own capacity would make genuinely unrepresented
// counts in [0x0800, 0x0FFE] indistinguishable from ones that fit.
const kInlineCountSentinel = intbits.InlineCountSentinel

// itemWord is an element of a frame's item buffer: either a fully-formed
// inline value word (always stored zero-padded to 4 bytes, per writeValue's
// "memset the tail" behavior) or a placeholder for a backward pointer whose
// absolute target is only resolved at fixup time.
type itemWord struct {
	b         [4]byte
	size      int // meaningful byte count of b, 1..4; 0 for pointer placeholders
	isPointer bool
	target    int // absolute stream offset the pointer refers to
}

// wordTag returns the tag nibble of an already-constructed inline word.
func wordTag(b [4]byte) byte {
	return b[0] >> 4
}

// isPointerByte reports whether the given first byte belongs to a pointer
// word (top bit of the tag nibble set).
func isPointerByte(first byte) bool {
	return first&0x80 != 0
}

// encodePointer renders a relative offset (already divided by 2, per the
// even-alignment rule) into a pointer word of the given width.
func encodePointer(relHalfWords uint32, width int) [4]byte {
	var b [4]byte
	if width == kNarrow {
		v := relHalfWords | 0x8000
		b[0] = byte(v >> 8)
		b[1] = byte(v)
	} else {
		v := relHalfWords | 0x80000000
		b[0] = byte(v >> 24)
		b[1] = byte(v >> 16)
		b[2] = byte(v >> 8)
		b[3] = byte(v)
	}
	return b
}

// decodePointerOffset reads the byte offset (already *2, i.e. in bytes) a
// pointer word refers to, relative to the pointer word's own starting
// position (i.e. target = pointerWordStart - offset).
func decodePointerOffset(data []byte) uint32 {
	if len(data) == 2 {
		v := uint32(data[0])<<8 | uint32(data[1])
		return (v &^ 0x8000) * 2
	}
	v := uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
	return (v &^ 0x80000000) * 2
}
