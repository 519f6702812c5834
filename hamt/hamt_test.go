package hamt

import (
	"bytes"
	"fmt"
	"strconv"
	"testing"
)

func TestInsertGetRoundTrip(t *testing.T) {
	tree := New()
	for i := 0; i < 5000; i++ {
		tree.Insert(StringKey(strconv.Itoa(i)), Val(i*2))
	}
	for i := 0; i < 5000; i++ {
		v, ok := tree.Get(StringKey(strconv.Itoa(i)))
		if !ok {
			t.Fatalf("key %d missing", i)
		}
		if v != Val(i*2) {
			t.Fatalf("key %d: got %d, want %d", i, v, i*2)
		}
	}
	if tree.Count() != 5000 {
		t.Fatalf("Count() = %d, want 5000", tree.Count())
	}
	if tree.CountSlow() != tree.Count() {
		t.Fatalf("CountSlow() = %d, want %d", tree.CountSlow(), tree.Count())
	}
}

func TestInsertOverwrite(t *testing.T) {
	tree := New()
	tree.Insert(StringKey("a"), Val(1))
	tree.Insert(StringKey("a"), Val(2))
	if tree.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", tree.Count())
	}
	v, ok := tree.Get(StringKey("a"))
	if !ok || v != 2 {
		t.Fatalf("Get(a) = (%d, %v), want (2, true)", v, ok)
	}
}

func TestRemove(t *testing.T) {
	tree := New()
	const n = 2000
	for i := 0; i < n; i++ {
		tree.Insert(Uint64Key(i), Val(i))
	}
	for i := 0; i < n; i += 2 {
		if !tree.Remove(Uint64Key(i)) {
			t.Fatalf("Remove(%d) = false, want true", i)
		}
	}
	if tree.Remove(Uint64Key(999999)) {
		t.Fatal("Remove of absent key returned true")
	}
	if tree.Count() != n/2 {
		t.Fatalf("Count() = %d, want %d", tree.Count(), n/2)
	}
	for i := 0; i < n; i++ {
		_, ok := tree.Get(Uint64Key(i))
		want := i%2 != 0
		if ok != want {
			t.Fatalf("Get(%d) present=%v, want %v", i, ok, want)
		}
	}
}

func TestRemoveCollapsesToRootEmpty(t *testing.T) {
	tree := New()
	tree.Insert(StringKey("solo"), Val(42))
	if !tree.Remove(StringKey("solo")) {
		t.Fatal("Remove(solo) = false")
	}
	if tree.Count() != 0 {
		t.Fatalf("Count() = %d, want 0", tree.Count())
	}
	if tree.root.bitmap != 0 {
		t.Fatalf("root bitmap = %#x, want 0 after removing the only key", tree.root.bitmap)
	}
}

// collidingKey hashes to a fixed value regardless of its payload, forcing
// every insert down the same trie path and exercising the §9 collision-
// bucket decision for keys whose full 32-bit hashes are equal.
type collidingKey struct {
	id   int
	hash uint32
}

func (k collidingKey) Hash() uint32 { return k.hash }
func (k collidingKey) Equal(other Key) bool {
	o, ok := other.(collidingKey)
	return ok && o.id == k.id
}

func TestHashCollisionDegradesToBucket(t *testing.T) {
	tree := New()
	const n = 8
	for i := 0; i < n; i++ {
		tree.Insert(collidingKey{id: i, hash: 0xABCDEF01}, Val(i))
	}
	if tree.Count() != n {
		t.Fatalf("Count() = %d, want %d", tree.Count(), n)
	}
	for i := 0; i < n; i++ {
		v, ok := tree.Get(collidingKey{id: i, hash: 0xABCDEF01})
		if !ok || v != Val(i) {
			t.Fatalf("Get(id=%d) = (%d, %v), want (%d, true)", i, v, ok, i)
		}
	}
	if !tree.Remove(collidingKey{id: 3, hash: 0xABCDEF01}) {
		t.Fatal("Remove of a bucketed key failed")
	}
	if _, ok := tree.Get(collidingKey{id: 3, hash: 0xABCDEF01}); ok {
		t.Fatal("removed bucketed key still found")
	}
	if tree.Count() != n-1 {
		t.Fatalf("Count() = %d, want %d", tree.Count(), n-1)
	}
}

func TestGetMiss(t *testing.T) {
	tree := New()
	tree.Insert(StringKey("present"), Val(1))
	if _, ok := tree.Get(StringKey("absent")); ok {
		t.Fatal("Get(absent) found a value")
	}
}

func TestDump(t *testing.T) {
	tree := New()
	for i := 0; i < 200; i++ {
		tree.Insert(Uint64Key(i), Val(i))
	}
	var buf bytes.Buffer
	if err := tree.Dump(&buf); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("Dump produced no output")
	}
	if !bytes.Contains(buf.Bytes(), []byte("interior")) {
		t.Fatal("Dump output missing interior node rendering")
	}
}

func TestBytesKeyAndStringKeyHash(t *testing.T) {
	if BytesKey("abc").Hash() != BytesKey("abc").Hash() {
		t.Fatal("BytesKey.Hash is not deterministic")
	}
	if !BytesKey("abc").Equal(BytesKey("abc")) {
		t.Fatal("BytesKey.Equal(self) = false")
	}
	if BytesKey("abc").Equal(BytesKey("abd")) {
		t.Fatal("BytesKey.Equal(different) = true")
	}
	if StringKey("abc").Equal(BytesKey("abc")) {
		t.Fatal("StringKey must not equal a different concrete Key type")
	}
}

func TestUint64KeyDistinctFromNeighbors(t *testing.T) {
	seen := map[uint32]bool{}
	collisions := 0
	for i := uint64(0); i < 1000; i++ {
		h := Uint64Key(i).Hash()
		if seen[h] {
			collisions++
		}
		seen[h] = true
	}
	if collisions > 5 {
		t.Fatalf("unexpectedly many 32-bit hash collisions among 1000 small uint64 keys: %d", collisions)
	}
}

func TestFuzzInsertRemoveConsistency(t *testing.T) {
	tree := New()
	present := map[string]Val{}
	for i := 0; i < 3000; i++ {
		k := StringKey(fmt.Sprintf("k%d", i%500))
		switch i % 3 {
		case 0, 1:
			tree.Insert(k, Val(i))
			present[string(k)] = Val(i)
		case 2:
			tree.Remove(k)
			delete(present, string(k))
		}
	}
	if tree.Count() != len(present) {
		t.Fatalf("Count() = %d, want %d", tree.Count(), len(present))
	}
	for k, want := range present {
		got, ok := tree.Get(StringKey(k))
		if !ok || got != want {
			t.Fatalf("Get(%q) = (%d, %v), want (%d, true)", k, got, ok, want)
		}
	}
}
