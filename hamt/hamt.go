// Package hamt implements a 64-way Hash Array Mapped Trie: an in-memory
// index from application keys to opaque values, typically byte offsets
// into a Fleece document (component F).
package hamt

import (
	"io"
)

// Key is anything a Tree can index: hashable to a 32-bit value and
// comparable to another Key of the same concrete type (§6.3).
type Key interface {
	Hash() uint32
	Equal(other Key) bool
}

// Val is the opaque payload stored at a leaf.
type Val uint64

// Tree is a HAMT: single-owner, single-threaded, and not safe for
// concurrent use without external synchronization (§5).
type Tree struct {
	root  *interior
	count int
}

// New returns an empty Tree. The root node is allocated at maximum
// capacity (§4.F.2) so it never needs to grow.
func New() *Tree {
	return &Tree{root: newRootInterior()}
}

// Insert adds key/val, overwriting any existing value for key.
func (t *Tree) Insert(key Key, val Val) {
	if t.root.insert(&leaf{hash: key.Hash(), key: key, val: val}, 0) {
		t.count++
	}
}

// Get returns key's value and whether it was found.
func (t *Tree) Get(key Key) (Val, bool) {
	return t.root.get(key.Hash(), key, 0)
}

// Remove deletes key if present, reporting whether it was found.
func (t *Tree) Remove(key Key) bool {
	if t.root.remove(key.Hash(), key, 0) {
		t.count--
		return true
	}
	return false
}

// Count returns the number of keys currently in the tree.
func (t *Tree) Count() int {
	return t.count
}

// CountSlow recomputes the count by walking the tree, ignoring the
// maintained counter. Exists to let tests cross-check Count (§4.F.1
// specifies count() as a recursive leaf count).
func (t *Tree) CountSlow() int {
	return t.root.leafCount()
}

// Dump writes a debug rendering of the tree's node structure to w.
func (t *Tree) Dump(w io.Writer) error {
	return t.root.dump(w, 0)
}
