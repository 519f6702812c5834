package fleece

import (
	"math"

	"github.com/jbro885/fleece/internal/varint"
)

func getLEUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func getLEUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = (v << 8) | uint64(b[i])
	}
	return v
}

// Reader owns a byte slice holding an encoded Fleece document and exposes
// Root, the top-level directly-addressable Value (§1, §6.1 supplement:
// the core spec only fixes the wire format; this read API is a
// supplemented feature modeled on the implied Value/Array/Dict wrapper
// types in Encoder.cc).
type Reader struct {
	data   []byte
	closer func() error
}

// NewReader wraps an already-in-memory encoded document. The returned
// Reader does not own data; the caller must keep it alive and not mutate
// it while the Reader is in use.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Close releases any resources backing the Reader (e.g. an mmap'd file).
// It is a no-op for readers constructed with NewReader.
func (r *Reader) Close() error {
	if r.closer != nil {
		c := r.closer
		r.closer = nil
		return c()
	}
	return nil
}

// Root returns the document's top-level value, located via the trailer
// rule: the final 2 bytes of the stream are always a narrow word pointing
// at (or being) the root (§6.1).
func (r *Reader) Root() Value {
	return NewValue(r.data)
}

// Value is a read-in-place handle to a Fleece value word or record. No
// parsing pass is required to construct one: every accessor below decodes
// only the bytes relevant to the question asked.
type Value struct {
	data []byte
	pos  int
}

// NewValue locates the document root within data using the trailer rule.
func NewValue(data []byte) Value {
	if len(data) < 2 {
		return Value{}
	}
	return resolveElement(data, len(data)-2, kNarrow)
}

// IsValid reports whether this Value refers to an actual position in the
// buffer (the zero Value, returned for malformed/empty input, is not).
func (v Value) IsValid() bool {
	return v.data != nil
}

func (v Value) tag() byte {
	return v.data[v.pos] >> 4
}

// resolveElement reads the word at pos (width bytes wide) and, if it is a
// pointer, follows it to its target. The returned Value always refers to
// genuine inline content, never to another pointer.
func resolveElement(data []byte, pos, width int) Value {
	if pos < 0 || pos+width > len(data) {
		return Value{}
	}
	if isPointerByte(data[pos]) {
		off := decodePointerOffset(data[pos : pos+width])
		target := pos - int(off)
		return Value{data: data, pos: target}
	}
	return Value{data: data, pos: pos}
}

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool {
	return v.IsValid() && v.tag() == tagSpecial && v.data[v.pos+1]&0x0F == specialNull
}

// IsArray reports whether v is an array value.
func (v Value) IsArray() bool {
	return v.IsValid() && v.tag() == tagArray
}

// IsDict reports whether v is a dict value.
func (v Value) IsDict() bool {
	return v.IsValid() && v.tag() == tagDict
}

// IsString reports whether v is a string value.
func (v Value) IsString() bool {
	return v.IsValid() && v.tag() == tagString
}

// AsBool returns v's boolean value. Non-boolean values return false.
func (v Value) AsBool() bool {
	if !v.IsValid() || v.tag() != tagSpecial {
		return false
	}
	return v.data[v.pos+1]&0x0F == specialTrue
}

// AsInt64 returns v's integer value, sign-extended. Floats are truncated
// toward zero; non-numeric values return 0.
func (v Value) AsInt64() int64 {
	n, _ := v.asInt()
	return n
}

// AsUint64 returns v's integer value as unsigned. Floats are truncated
// toward zero; non-numeric values return 0.
func (v Value) AsUint64() uint64 {
	n, _ := v.asInt()
	return uint64(n)
}

func (v Value) asInt() (int64, bool) {
	if !v.IsValid() {
		return 0, false
	}
	switch v.tag() {
	case tagShortInt:
		raw := int16(v.data[v.pos]&0x0F)<<8 | int16(v.data[v.pos+1])
		if raw&0x0800 != 0 {
			raw -= 0x1000
		}
		return int64(raw), true
	case tagInt:
		flags := v.data[v.pos] & 0x0F
		size := int(flags&0x07) + 1
		unsigned := flags&0x08 != 0
		b := v.data[v.pos+1 : v.pos+1+size]
		var u uint64
		for i := size - 1; i >= 0; i-- {
			u = (u << 8) | uint64(b[i])
		}
		if !unsigned && size < 8 {
			shift := uint(size * 8)
			if u&(1<<(shift-1)) != 0 {
				u |= ^uint64(0) << shift
			}
		}
		return int64(u), true
	case tagFloat:
		return int64(v.AsDouble()), true
	default:
		return 0, false
	}
}

// AsDouble returns v's numeric value as a float64. Integers are
// converted; non-numeric values return 0.
func (v Value) AsDouble() float64 {
	if !v.IsValid() {
		return 0
	}
	if v.tag() == tagFloat {
		isDouble := v.data[v.pos]&0x08 != 0
		if isDouble {
			u := getLEUint64(v.data[v.pos+2 : v.pos+10])
			return math.Float64frombits(u)
		}
		u := getLEUint32(v.data[v.pos+2 : v.pos+6])
		return float64(math.Float32frombits(u))
	}
	if n, ok := v.asInt(); ok {
		return float64(n)
	}
	return 0
}

// decodeFramed reads the {length-nibble[, varint extension]} framing
// shared by strings and binary data and returns the byte range of the
// payload itself (§4.E writeData).
func decodeFramed(data []byte, pos int) (start, length int) {
	nibble := data[pos] & 0x0F
	if nibble < 0x0F {
		return pos + 1, int(nibble)
	}
	n, consumed := varint.UVarInt(data[pos+1:])
	return pos + 1 + consumed, int(n)
}

// AsString returns v's string value. Non-string values return "".
func (v Value) AsString() string {
	if !v.IsValid() || v.tag() != tagString {
		return ""
	}
	start, length := decodeFramed(v.data, v.pos)
	return string(v.data[start : start+length])
}

// AsData returns v's binary payload. Non-binary values return nil.
func (v Value) AsData() []byte {
	if !v.IsValid() || v.tag() != tagBinary {
		return nil
	}
	start, length := decodeFramed(v.data, v.pos)
	return v.data[start : start+length]
}

// collectionHeader decodes the count/width framing shared by arrays and
// dicts (§4.E "Algorithm: closing a collection").
func collectionHeader(data []byte, pos int) (count int, wide bool, bodyStart int) {
	inline := int(data[pos]&0x07)<<8 | int(data[pos+1])
	wide = data[pos]&0x08 != 0
	bodyStart = pos + 2
	if inline == kInlineCountSentinel {
		n, consumed := varint.UVarInt(data[pos+2:])
		count = int(n)
		bodyStart = pos + 2 + consumed
		if bodyStart%2 != 0 {
			bodyStart++
		}
	} else {
		count = inline
	}
	return count, wide, bodyStart
}

// Array is a read-in-place view of an array value.
type Array struct {
	data      []byte
	count     int
	wide      bool
	bodyStart int
}

// AsArray views v as an array. Non-array values return an empty Array.
func (v Value) AsArray() Array {
	if !v.IsValid() || v.tag() != tagArray {
		return Array{}
	}
	count, wide, bodyStart := collectionHeader(v.data, v.pos)
	return Array{data: v.data, count: count, wide: wide, bodyStart: bodyStart}
}

// Len returns the number of elements in the array.
func (a Array) Len() int {
	return a.count
}

// Get returns the element at i. i must be in [0, Len()).
func (a Array) Get(i int) Value {
	if i < 0 || i >= a.count {
		return Value{}
	}
	width := kNarrow
	if a.wide {
		width = kWide
	}
	return resolveElement(a.data, a.bodyStart+i*width, width)
}

// Dict is a read-in-place view of a dict value. Entries are stored in
// ascending byte-lexicographic key order when the Encoder sorted them.
type Dict struct {
	data      []byte
	count     int
	wide      bool
	bodyStart int
}

// AsDict views v as a dict. Non-dict values return an empty Dict.
func (v Value) AsDict() Dict {
	if !v.IsValid() || v.tag() != tagDict {
		return Dict{}
	}
	count, wide, bodyStart := collectionHeader(v.data, v.pos)
	return Dict{data: v.data, count: count, wide: wide, bodyStart: bodyStart}
}

// Len returns the number of key/value pairs in the dict.
func (d Dict) Len() int {
	return d.count
}

func (d Dict) slotWidth() int {
	if d.wide {
		return kWide
	}
	return kNarrow
}

// KeyAt returns the key at pair index i.
func (d Dict) KeyAt(i int) Value {
	if i < 0 || i >= d.count {
		return Value{}
	}
	w := d.slotWidth()
	return resolveElement(d.data, d.bodyStart+2*i*w, w)
}

// ValueAt returns the value at pair index i.
func (d Dict) ValueAt(i int) Value {
	if i < 0 || i >= d.count {
		return Value{}
	}
	w := d.slotWidth()
	return resolveElement(d.data, d.bodyStart+(2*i+1)*w, w)
}

// Get looks up key by byte-lexicographic binary search, which is only
// correct if the dict was encoded with WithSortKeys(true) (the default).
// Returns the zero Value (IsValid()==false) on miss.
func (d Dict) Get(key string) Value {
	lo, hi := 0, d.count
	for lo < hi {
		mid := (lo + hi) / 2
		k := d.KeyAt(mid).AsString()
		if k == key {
			return d.ValueAt(mid)
		} else if k < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return Value{}
}

// GetLinear looks up key by linear scan, correct regardless of sort order.
func (d Dict) GetLinear(key string) Value {
	for i := 0; i < d.count; i++ {
		if d.KeyAt(i).AsString() == key {
			return d.ValueAt(i)
		}
	}
	return Value{}
}
