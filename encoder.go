package fleece

import (
	"bytes"
	"math"
	"sort"

	ferrors "github.com/jbro885/fleece/errors"
	"github.com/jbro885/fleece/internal/varint"
)

// Stats exposes the debug counters Encoder.cc tracks under #ifndef NDEBUG
// (§9 supplement): useful for tests that assert on the interning and
// width-promotion invariants of §8.
type Stats struct {
	NumNarrow    int
	NumWide      int
	NarrowCount  int
	WideCount    int
	SavedStrings int
}

// Encoder is a streaming producer of the Fleece wire format (component E).
// It owns a stack of open collections, the string-interning table, and the
// sort/dedup policy. An Encoder is single-owner and single-threaded (§5):
// it must not be shared across goroutines while open.
type Encoder struct {
	cfg      encoderConfig
	writer   *byteWriter
	strings  *stringTable
	stack    []*frame
	stats    Stats
	finished bool
	broken   error
}

// NewEncoder creates an Encoder ready to accept exactly one top-level value.
func NewEncoder(opts ...EncoderOption) *Encoder {
	cfg := defaultEncoderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	e := &Encoder{
		cfg:     cfg,
		writer:  newByteWriter(),
		strings: newStringTable(),
	}
	e.push(tagSpecial) // top-level "single value" sentinel frame
	return e
}

// Reset drops all in-flight state (stack, interning table, output buffer)
// so the Encoder can be reused for a new document.
func (e *Encoder) Reset() {
	e.writer.reset()
	e.strings.reset()
	e.stack = e.stack[:0]
	e.finished = false
	e.broken = nil
	e.stats = Stats{}
	e.push(tagSpecial)
}

// Stats returns the running debug counters for the document built so far.
func (e *Encoder) Stats() Stats {
	return e.stats
}

func (e *Encoder) top() *frame {
	return e.stack[len(e.stack)-1]
}

func (e *Encoder) push(tag byte) {
	f := &frame{}
	f.reset(tag)
	e.stack = append(e.stack, f)
}

// guard reports whether the encoder is still usable for a mutating call.
func (e *Encoder) guard() error {
	if e.broken != nil {
		return e.broken
	}
	if e.finished {
		return ferrors.ErrNotFinished
	}
	return nil
}

func (e *Encoder) fail(err error) error {
	e.broken = err
	return err
}

// addItem mirrors Encoder::addItem: dict key/value gating (§3.3, §7).
func (e *Encoder) addItem(w itemWord) error {
	f := e.top()
	if f.blockedOnKey {
		return e.fail(ferrors.ErrNeedKey)
	}
	if f.writingKey {
		f.writingKey = false
	} else if f.tag == tagDict {
		f.blockedOnKey = true
		f.writingKey = true
	}
	f.items = append(f.items, w)
	return nil
}

func (e *Encoder) writePointer(absPos int) error {
	return e.addItem(itemWord{isPointer: true, target: absPos})
}

// nextWritePos pads the stream to an even offset and returns that offset,
// mirroring Encoder::nextWritePos.
func (e *Encoder) nextWritePos() int {
	e.writer.padToEven()
	return e.writer.length()
}

// writeValue assembles a value word from buf (whose tag nibble has not yet
// been set) and either inlines it into the current frame or, when it
// cannot be inlined, writes buf out-of-line and pushes a pointer instead
// (§4.D, "Algorithm: scalar emission").
func (e *Encoder) writeValue(tag byte, buf []byte, canInline bool) error {
	buf[0] |= tag << 4
	size := len(buf)
	if canInline && size <= 4 {
		var w itemWord
		copy(w.b[:], buf)
		w.size = size
		if err := e.addItem(w); err != nil {
			return err
		}
		if size > 2 {
			e.top().wide = true
		}
		return nil
	}
	pos := e.nextWritePos()
	if err := e.writePointer(pos); err != nil {
		return err
	}
	e.writer.write(buf)
	return nil
}

// WriteNull appends a null value.
func (e *Encoder) WriteNull() error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.writeValue(tagSpecial, []byte{0, specialNull}, true)
}

// WriteBool appends a boolean value.
func (e *Encoder) WriteBool(b bool) error {
	if err := e.guard(); err != nil {
		return err
	}
	v := byte(specialFalse)
	if b {
		v = specialTrue
	}
	return e.writeValue(tagSpecial, []byte{0, v}, true)
}

// WriteInt appends a signed integer, using the 12-bit short-int inline
// form for values in [-2048, 2048) and a minimum-byte-length encoding
// otherwise (§4.E "Algorithm: integer canonicalization").
func (e *Encoder) WriteInt(i int64) error {
	if err := e.guard(); err != nil {
		return err
	}
	isSmall := i < 2048 && i >= -2048
	return e.writeInt(uint64(i), isSmall, false)
}

// WriteUInt appends an unsigned integer.
func (e *Encoder) WriteUInt(u uint64) error {
	if err := e.guard(); err != nil {
		return err
	}
	isSmall := u < 2048
	return e.writeInt(u, isSmall, true)
}

func (e *Encoder) writeInt(i uint64, isSmall, isUnsigned bool) error {
	if isSmall {
		return e.writeValue(tagShortInt, []byte{byte((i >> 8) & 0x0F), byte(i & 0xFF)}, true)
	}
	var buf [10]byte
	size := varint.PutIntOfLength(buf[1:], int64(i), isUnsigned)
	buf[0] = byte(size - 1)
	if isUnsigned {
		buf[0] |= 0x08
	}
	total := size + 1
	if total%2 != 0 {
		buf[total] = 0
		total++
	}
	return e.writeValue(tagInt, buf[:total], true)
}

const maxSafeIntDouble = 1 << 63

// WriteDouble appends a float64, delegating to the integer path when the
// value has no fractional part (§4.E).
func (e *Encoder) WriteDouble(n float64) error {
	if err := e.guard(); err != nil {
		return err
	}
	if math.IsNaN(n) {
		return e.fail(ferrors.ErrInvalidValue)
	}
	if n == math.Trunc(n) && n > -maxSafeIntDouble && n < maxSafeIntDouble {
		return e.WriteInt(int64(n))
	}
	buf := make([]byte, 10)
	buf[0] = 0x08 // "double" size flag
	buf[1] = 0
	putLEUint64(buf[2:], math.Float64bits(n))
	return e.writeValue(tagFloat, buf, true)
}

// WriteFloat appends a float32, delegating to the integer path when the
// value is a whole number that round-trips through int32.
func (e *Encoder) WriteFloat(n float32) error {
	if err := e.guard(); err != nil {
		return err
	}
	if math.IsNaN(float64(n)) {
		return e.fail(ferrors.ErrInvalidValue)
	}
	if n == float32(int32(n)) {
		return e.WriteInt(int64(int32(n)))
	}
	buf := make([]byte, 6)
	buf[0] = 0x00 // "float" size flag
	buf[1] = 0
	putLEUint32(buf[2:], math.Float32bits(n))
	return e.writeValue(tagFloat, buf, true)
}

func putLEUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func putLEUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (uint(i) * 8))
	}
}

// writeData frames tag + bytes per §4.E ("Algorithm: string path",
// writeData). Returns the offset of the out-of-line value (its header
// word, which is what pointers to it target) and whether it landed
// out-of-line (only out-of-line writes are stable enough to record in the
// string table).
func (e *Encoder) writeData(tag byte, data []byte) (offset int, outOfLine bool, err error) {
	n := len(data)
	if n < kNarrow {
		buf := make([]byte, 1+n)
		buf[0] = byte(n)
		copy(buf[1:], data)
		return 0, false, e.writeValue(tag, buf, true)
	}
	buf := make([]byte, 1, 1+varint.MaxLen64)
	buf[0] = byte(min(n, 0xF))
	if n >= 0x0F {
		var vbuf [varint.MaxLen64]byte
		vn := varint.PutUVarInt(vbuf[:], uint64(n))
		buf = append(buf, vbuf[:vn]...)
	}
	offset = e.nextWritePos()
	if err = e.writeValue(tag, buf, false); err != nil {
		return 0, false, err
	}
	e.writer.write(data)
	return offset, true, nil
}

// _writeString interns data when policy allows, otherwise writes it raw
// (§4.E "Algorithm: string path").
func (e *Encoder) _writeString(data []byte, asKey bool) ([]byte, error) {
	n := len(data)
	if e.cfg.uniqueStrings && n >= kNarrow && n <= kMaxSharedStringSize {
		slot := e.strings.find(data)
		entry := e.strings.entryAt(slot)
		if entry.occupied {
			if err := e.writePointer(int(entry.offset)); err != nil {
				return nil, err
			}
			if asKey {
				entry.usedAsKey = true
			}
			e.stats.SavedStrings++
			return entry.key, nil
		}
		offset, outOfLine, err := e.writeData(tagString, data)
		if err != nil {
			return nil, err
		}
		if outOfLine {
			e.strings.addAt(slot, data, uint32(offset), asKey)
			return e.strings.entryAt(slot).key, nil
		}
		return data, nil
	}
	_, _, err := e.writeData(tagString, data)
	return data, err
}

// WriteString appends a UTF-8 string value.
func (e *Encoder) WriteString(s string) error {
	if err := e.guard(); err != nil {
		return err
	}
	_, err := e._writeString([]byte(s), false)
	if err != nil {
		return e.fail(err)
	}
	return nil
}

// WriteStringBytes appends a UTF-8 string value given as a byte slice.
func (e *Encoder) WriteStringBytes(s []byte) error {
	if err := e.guard(); err != nil {
		return err
	}
	_, err := e._writeString(s, false)
	if err != nil {
		return e.fail(err)
	}
	return nil
}

// WriteData appends an opaque binary value; binary payloads are never
// interned.
func (e *Encoder) WriteData(b []byte) error {
	if err := e.guard(); err != nil {
		return err
	}
	_, _, err := e.writeData(tagBinary, b)
	if err != nil {
		return e.fail(err)
	}
	return nil
}

// BeginArray pushes a new open array frame.
func (e *Encoder) BeginArray(reserve int) error {
	if err := e.guard(); err != nil {
		return err
	}
	if e.top().blockedOnKey {
		return e.fail(ferrors.ErrNeedKey)
	}
	e.push(tagArray)
	if reserve > 0 {
		e.top().items = make([]itemWord, 0, reserve)
	}
	return nil
}

// BeginDictionary pushes a new open dict frame.
func (e *Encoder) BeginDictionary(reserve int) error {
	if err := e.guard(); err != nil {
		return err
	}
	if e.top().blockedOnKey {
		return e.fail(ferrors.ErrNeedKey)
	}
	e.push(tagDict)
	f := e.top()
	if reserve > 0 {
		f.items = make([]itemWord, 0, 2*reserve)
		f.keys = make([][]byte, 0, reserve)
	}
	f.writingKey = true
	f.blockedOnKey = true
	return nil
}

// WriteKey declares the key for the next dict entry.
func (e *Encoder) WriteKey(s string) error {
	return e.writeKeyBytes([]byte(s))
}

// WriteKeyBytes is WriteKey taking the key as a byte slice.
func (e *Encoder) WriteKeyBytes(s []byte) error {
	return e.writeKeyBytes(s)
}

func (e *Encoder) writeKeyBytes(s []byte) error {
	if err := e.guard(); err != nil {
		return err
	}
	f := e.top()
	if !f.blockedOnKey {
		return e.fail(ferrors.ErrNoKeyHere)
	}
	f.blockedOnKey = false
	written, err := e._writeString(s, true)
	if err != nil {
		return e.fail(err)
	}
	if e.cfg.sortKeys {
		f.keys = append(f.keys, written)
	}
	return nil
}

// EndArray closes the top array frame.
func (e *Encoder) EndArray() error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.endCollection(tagArray)
}

// EndDictionary closes the top dict frame.
func (e *Encoder) EndDictionary() error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.endCollection(tagDict)
}

func (e *Encoder) endCollection(tag byte) error {
	f := e.top()
	if f.tag != tag {
		return e.fail(ferrors.ErrUnbalanced)
	}
	e.stack = e.stack[:len(e.stack)-1]

	if e.cfg.sortKeys && tag == tagDict {
		sortDict(f)
	}
	e.checkPointerWidths(f)

	count := len(f.items)
	if tag == tagDict {
		count /= 2
	}

	buf := make([]byte, 2, 2+varint.MaxLen64+1)
	inlineCount := count
	if count >= kInlineCountSentinel {
		inlineCount = kInlineCountSentinel
	}
	buf[0] = byte(inlineCount >> 8)
	buf[1] = byte(inlineCount & 0xFF)
	if count >= kInlineCountSentinel {
		var vbuf [varint.MaxLen64]byte
		vn := varint.PutUVarInt(vbuf[:], uint64(count))
		buf = append(buf, vbuf[:vn]...)
		if len(buf)%2 != 0 {
			buf = append(buf, 0)
		}
	}
	if f.wide {
		buf[0] |= 0x08
	}

	if err := e.writeValue(tag, buf, count == 0); err != nil {
		return err
	}

	e.fixPointers(f)

	if count > 0 {
		if f.wide {
			for i := range f.items {
				e.writer.write(f.items[i].b[:4])
			}
		} else {
			for i := range f.items {
				e.writer.write(f.items[i].b[:2])
			}
		}
	}

	if f.wide {
		e.stats.NumWide++
		e.stats.WideCount += count
	} else {
		e.stats.NumNarrow++
		e.stats.NarrowCount += count
	}
	return nil
}

// checkPointerWidths mirrors Encoder::checkPointerWidths: walks the trial
// narrow layout and promotes the whole frame to wide if any backward
// pointer would exceed the 16-bit narrow range.
func (e *Encoder) checkPointerWidths(f *frame) {
	if f.wide {
		return
	}
	base := e.writer.length()
	if base%2 != 0 {
		base++
	}
	for _, it := range f.items {
		if it.isPointer {
			if base-it.target >= 0x10000 {
				f.wide = true
				return
			}
		}
		base += kNarrow
	}
}

// fixPointers mirrors Encoder::fixPointers: converts absolute pointer
// targets into the relative, width-chosen form written to the stream.
func (e *Encoder) fixPointers(f *frame) {
	base := e.writer.length()
	if base%2 != 0 {
		base++
	}
	width := kNarrow
	if f.wide {
		width = kWide
	}
	for i := range f.items {
		it := &f.items[i]
		if it.isPointer {
			rel := base - it.target
			it.b = encodePointer(uint32(rel/2), width)
			it.size = width
		}
		base += width
	}
}

// sortDict mirrors Encoder::sortDict (§4.E): permutes item pairs so keys
// appear in ascending byte-lexicographic order.
func sortDict(f *frame) {
	n := len(f.keys)
	if n < 2 {
		return
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return bytes.Compare(f.keys[idx[a]], f.keys[idx[b]]) < 0
	})
	newItems := make([]itemWord, len(f.items))
	newKeys := make([][]byte, n)
	for i, j := range idx {
		newItems[2*i] = f.items[2*j]
		newItems[2*i+1] = f.items[2*j+1]
		newKeys[i] = f.keys[j]
	}
	copy(f.items, newItems)
	copy(f.keys, newKeys)
}

// End finishes the document and returns the encoded bytes. After End, the
// Encoder must be Reset before it can be used again.
func (e *Encoder) End() ([]byte, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	if len(e.stack) > 1 {
		return nil, e.fail(ferrors.ErrUnbalanced)
	}
	f := e.top()
	if len(f.items) > 1 {
		return nil, e.fail(ferrors.ErrUnbalanced)
	}
	if len(f.items) == 0 {
		// Empty document: minimal trailer encoding null (§8.2).
		e.writer.write([]byte{tagSpecial << 4, specialNull})
	} else {
		e.writer.padToEven()
		e.fixPointers(f)
		root := f.items[0]
		if f.wide {
			e.writer.write(root.b[:4])
			ptr := encodePointer(uint32(kWide/2), kNarrow)
			e.writer.write(ptr[:2])
		} else {
			e.writer.write(root.b[:2])
		}
		f.items = f.items[:0]
	}
	e.finished = true
	out := make([]byte, e.writer.length())
	copy(out, e.writer.bytes())
	return out, nil
}

// WriteKeyTable emits an array of every interned string that was ever used
// as a dict key (§4.E, §9). Iteration order over the string table is
// implementation-defined; callers must not depend on it.
func (e *Encoder) WriteKeyTable() error {
	if err := e.guard(); err != nil {
		return err
	}
	type keyEntry struct {
		key []byte
	}
	var keys []keyEntry
	e.strings.forEachKey(func(key []byte, offset uint32) {
		keys = append(keys, keyEntry{key})
	})
	if err := e.BeginArray(len(keys)); err != nil {
		return err
	}
	for _, k := range keys {
		if err := e.WriteStringBytes(k.key); err != nil {
			return err
		}
	}
	return e.EndArray()
}
