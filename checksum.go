package fleece

import "github.com/cespare/xxhash/v2"

// Checksum returns an xxHash64 digest of the bytes written so far. This is
// an out-of-band integrity aid, not part of the wire format: byte-identical
// streams have the same Checksum, but the checksum itself is
// never embedded in the document (§6.1 fixes the wire format without a
// trailer checksum field). Modeled on the footer PayloadRegionHash /
// MetadataRegionHash fields of the teacher's on-disk index format.
func (e *Encoder) Checksum() uint64 {
	return xxhash.Sum64(e.writer.bytes())
}

// Checksum returns an xxHash64 digest of the Reader's underlying bytes.
func (r *Reader) Checksum() uint64 {
	return xxhash.Sum64(r.data)
}
