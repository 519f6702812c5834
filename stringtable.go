package fleece

import "github.com/zeebo/xxh3"

// stringTableEntry records where a previously-interned string value was
// written, i.e. the offset that later pointers to it target (component C,
// §3.2). key is an owning copy of the payload bytes;
// it is only populated once the string has actually been written
// out-of-line (inline strings have no stable backing buffer to intern).
type stringTableEntry struct {
	key      []byte
	offset   uint32
	usedAsKey bool
	occupied  bool
}

// stringTable is an open-addressed hash map from byte-slice content to
// stringTableEntry, using linear probing. Collision policy and load factor
// are implementation choices (§4.C); the only contract callers rely on is
// that find returns either a hit or an empty slot suitable for addAt.
type stringTable struct {
	entries []stringTableEntry
	count   int
}

func newStringTable() *stringTable {
	return &stringTable{entries: make([]stringTableEntry, 16)}
}

func hashBytes(b []byte) uint64 {
	return xxh3.Hash(b)
}

// find looks up s and returns the slot index: if occupied, it is a hit;
// otherwise it is the first empty slot along the probe sequence where s
// may be inserted via addAt.
func (t *stringTable) find(s []byte) int {
	if len(t.entries) == 0 || t.count*2 >= len(t.entries) {
		t.grow()
	}
	mask := len(t.entries) - 1
	i := int(hashBytes(s)) & mask
	for {
		e := &t.entries[i]
		if !e.occupied {
			return i
		}
		if bytesEqual(e.key, s) {
			return i
		}
		i = (i + 1) & mask
	}
}

// addAt records a new entry at the slot returned by a prior miss from find.
func (t *stringTable) addAt(slot int, s []byte, offset uint32, usedAsKey bool) {
	key := make([]byte, len(s))
	copy(key, s)
	t.entries[slot] = stringTableEntry{key: key, offset: offset, usedAsKey: usedAsKey, occupied: true}
	t.count++
}

// entryAt returns a pointer to the entry at slot for in-place mutation
// (e.g. marking usedAsKey on a repeat lookup).
func (t *stringTable) entryAt(slot int) *stringTableEntry {
	return &t.entries[slot]
}

func (t *stringTable) grow() {
	newSize := len(t.entries) * 2
	if newSize == 0 {
		newSize = 16
	}
	old := t.entries
	t.entries = make([]stringTableEntry, newSize)
	t.count = 0
	mask := newSize - 1
	for _, e := range old {
		if !e.occupied {
			continue
		}
		i := int(hashBytes(e.key)) & mask
		for t.entries[i].occupied {
			i = (i + 1) & mask
		}
		t.entries[i] = e
		t.count++
	}
}

// forEachKey calls fn for every entry that was ever used as a dict key, in
// table iteration order. The order is implementation-defined (§9 open
// question): callers must not depend on it.
func (t *stringTable) forEachKey(fn func(key []byte, offset uint32)) {
	for _, e := range t.entries {
		if e.occupied && e.usedAsKey {
			fn(e.key, e.offset)
		}
	}
}

func (t *stringTable) reset() {
	t.entries = make([]stringTableEntry, 16)
	t.count = 0
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
