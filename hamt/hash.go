package hamt

import (
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

// BytesKey is a Key over a raw byte string, hashed with xxHash3 — the
// same fast, high-quality hasher the rest of this module standardizes on
// for string interning.
type BytesKey []byte

// Hash returns the low 32 bits of the xxHash3 digest of k.
func (k BytesKey) Hash() uint32 {
	return uint32(xxh3.Hash(k))
}

// Equal reports whether other is a BytesKey with identical contents.
func (k BytesKey) Equal(other Key) bool {
	o, ok := other.(BytesKey)
	return ok && string(k) == string(o)
}

// StringKey is a Key over a Go string, hashed with 32-bit Murmur3. Use
// this instead of BytesKey when interoperating with on-disk indexes or
// tooling that was built against Murmur3 hashes.
type StringKey string

// Hash returns the 32-bit Murmur3 digest of k.
func (k StringKey) Hash() uint32 {
	return murmur3.Sum32([]byte(k))
}

// Equal reports whether other is a StringKey with identical contents.
func (k StringKey) Equal(other Key) bool {
	o, ok := other.(StringKey)
	return ok && k == o
}

// Uint64Key is a Key over a raw 64-bit integer, hashed as the low 32 bits
// of the xxHash3 digest of its 8 little-endian bytes. Useful for indexing already-numeric
// identifiers (e.g. row ids) without a string conversion.
type Uint64Key uint64

// Hash returns a 32-bit hash of k.
func (k Uint64Key) Hash() uint32 {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(k >> (uint(i) * 8))
	}
	return uint32(xxh3.Hash(b[:]))
}

// Equal reports whether other is a Uint64Key with the same value.
func (k Uint64Key) Equal(other Key) bool {
	o, ok := other.(Uint64Key)
	return ok && k == o
}
