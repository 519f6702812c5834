package hamt

import (
	"fmt"
	"io"
	"strings"

	intbits "github.com/jbro885/fleece/internal/bits"
)

// kBitShift is the width of one hash slice; kMaxChildren = 1<<kBitShift is
// the number of possible slice values per node, and so the maximum
// packed-child-array size (§3.4, §4.F.2).
const (
	kBitShift    = 6
	kMaxChildren = 1 << kBitShift
	kHashBits    = 32
)

// child is the discriminated union the original flexible-array design is
// re-architected as (§9 "Downcasting Node*"): every node slot holds
// exactly one of *leaf, *interior, or *collision.
type child interface {
	leafCount() int
	dump(w io.Writer, indent int) error
}

// leaf is a terminal key/value pair.
type leaf struct {
	hash uint32
	key  Key
	val  Val
}

func (l *leaf) leafCount() int { return 1 }

func (l *leaf) dump(w io.Writer, indent int) error {
	_, err := fmt.Fprintf(w, "%sleaf hash=%#08x val=%d\n", strings.Repeat("  ", indent), l.hash, l.val)
	return err
}

// collision holds two or more leaves whose full 32-bit hashes are equal
// (§9 open question: the original asserts on depth overflow; this tree
// instead degrades to a linear-scan bucket rather than guessing whether
// the author intended a wider hash). insert creates the bucket in the
// slot where two such leaves first meet, at whatever depth that is.
type collision struct {
	hash   uint32
	leaves []*leaf
}

func (c *collision) leafCount() int { return len(c.leaves) }

func (c *collision) dump(w io.Writer, indent int) error {
	pad := strings.Repeat("  ", indent)
	if _, err := fmt.Fprintf(w, "%scollision hash=%#08x n=%d\n", pad, c.hash, len(c.leaves)); err != nil {
		return err
	}
	for _, l := range c.leaves {
		if err := l.dump(w, indent+1); err != nil {
			return err
		}
	}
	return nil
}

func (c *collision) find(key Key) int {
	for i, l := range c.leaves {
		if l.key.Equal(key) {
			return i
		}
	}
	return -1
}

// interior is a popcount-compressed trie node (§3.4).
type interior struct {
	bitmap   uint64
	children []child
}

func (n *interior) leafCount() int {
	total := 0
	for _, c := range n.children {
		total += c.leafCount()
	}
	return total
}

func (n *interior) dump(w io.Writer, indent int) error {
	pad := strings.Repeat("  ", indent)
	if _, err := fmt.Fprintf(w, "%sinterior bitmap=%#016x children=%d/%d\n", pad, n.bitmap, len(n.children), cap(n.children)); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := c.dump(w, indent+1); err != nil {
			return err
		}
	}
	return nil
}

// slice extracts the 6-bit hash slice at shift. Once shift reaches
// kHashBits there are no bits left and Go's defined "shift by >= width is
// zero" semantics yield slice 0; insert never descends that far, since it
// buckets leaves into a collision before shift+kBitShift reaches kHashBits.
func slice(hash uint32, shift uint) uint {
	return intbits.Slice6(hash, shift/kBitShift)
}

func hasChild(bitmap uint64, bitNo uint) bool {
	return bitmap&(uint64(1)<<bitNo) != 0
}

func slotIndex(bitmap uint64, bitNo uint) int {
	return intbits.PopCount64(bitmap, bitNo)
}

// nonRootCapacity computes a new non-root interior node's starting
// capacity from the shift level at which it is created (§4.F.2): nodes
// created just below the root start at 4, deep nodes at 2.
func nonRootCapacity(shift uint) int {
	level := shift / kBitShift
	capacity := 2
	if level < 1 {
		capacity++
	}
	if level < 3 {
		capacity++
	}
	return capacity
}

func newRootInterior() *interior {
	return &interior{children: make([]child, 0, kMaxChildren)}
}

func newInterior(shift uint) *interior {
	c := nonRootCapacity(shift)
	if c > kMaxChildren {
		c = kMaxChildren
	}
	return &interior{children: make([]child, 0, c)}
}

// growIfFull returns n.children with room for one more element, copying
// to a capacity+1 backing array when the current one is exhausted
// (§4.F.2: "a fresh node of capacity+1 is allocated, existing children
// are copied"; the node itself keeps its identity, only its backing
// array is replaced, which is the Go-idiomatic equivalent of copy-and-
// relink since there is no parent pointer to fix up).
func (n *interior) growIfFull() {
	if len(n.children) < cap(n.children) {
		return
	}
	grown := make([]child, len(n.children), cap(n.children)+1)
	copy(grown, n.children)
	n.children = grown
}

func (n *interior) insertChildAt(idx int, c child) {
	n.growIfFull()
	n.children = append(n.children, nil)
	copy(n.children[idx+1:], n.children[idx:])
	n.children[idx] = c
}

func (n *interior) removeChildAt(idx int) {
	n.children = append(n.children[:idx], n.children[idx+1:]...)
}

// insert implements §4.F.3. It returns true iff a new key was added
// (false on an in-place overwrite), which the Tree uses to maintain its
// O(1) Count().
func (n *interior) insert(lf *leaf, shift uint) bool {
	bitNo := slice(lf.hash, shift)
	if !hasChild(n.bitmap, bitNo) {
		idx := slotIndex(n.bitmap, bitNo)
		n.insertChildAt(idx, lf)
		n.bitmap |= uint64(1) << bitNo
		return true
	}

	idx := slotIndex(n.bitmap, bitNo)
	switch c := n.children[idx].(type) {
	case *leaf:
		if c.hash == lf.hash && c.key.Equal(lf.key) {
			c.val = lf.val
			return false
		}
		if c.hash == lf.hash {
			// Same 32-bit hash, different key: a genuine hash collision.
			// Bucket them rather than recursing past kHashBits of shift.
			n.children[idx] = &collision{hash: c.hash, leaves: []*leaf{c, lf}}
			return true
		}
		if shift+kBitShift >= kHashBits {
			n.children[idx] = &collision{hash: c.hash, leaves: []*leaf{c, lf}}
			return true
		}
		m := newInterior(shift)
		m.insert(c, shift+kBitShift)
		m.insert(lf, shift+kBitShift)
		n.children[idx] = m
		return true
	case *interior:
		return c.insert(lf, shift+kBitShift)
	case *collision:
		if c.hash != lf.hash {
			// Shouldn't happen (collision buckets are keyed by one hash),
			// but handle it rather than silently merging unrelated keys.
			m := newInterior(shift)
			for _, existing := range c.leaves {
				m.insert(existing, shift+kBitShift)
			}
			m.insert(lf, shift+kBitShift)
			n.children[idx] = m
			return true
		}
		if i := c.find(lf.key); i >= 0 {
			c.leaves[i].val = lf.val
			return false
		}
		c.leaves = append(c.leaves, lf)
		return true
	default:
		return false
	}
}

// get implements the lookup half of §4.F.1.
func (n *interior) get(hash uint32, key Key, shift uint) (Val, bool) {
	bitNo := slice(hash, shift)
	if !hasChild(n.bitmap, bitNo) {
		return 0, false
	}
	idx := slotIndex(n.bitmap, bitNo)
	switch c := n.children[idx].(type) {
	case *leaf:
		if c.hash == hash && c.key.Equal(key) {
			return c.val, true
		}
		return 0, false
	case *interior:
		return c.get(hash, key, shift+kBitShift)
	case *collision:
		if i := c.find(key); i >= 0 {
			return c.leaves[i].val, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// remove implements §4.F.4, collapsing empty interior nodes and
// single-leaf collision buckets on the way up.
func (n *interior) remove(hash uint32, key Key, shift uint) bool {
	bitNo := slice(hash, shift)
	if !hasChild(n.bitmap, bitNo) {
		return false
	}
	idx := slotIndex(n.bitmap, bitNo)
	switch c := n.children[idx].(type) {
	case *leaf:
		if c.hash != hash || !c.key.Equal(key) {
			return false
		}
		n.removeChildAt(idx)
		n.bitmap &^= uint64(1) << bitNo
		return true
	case *interior:
		if !c.remove(hash, key, shift+kBitShift) {
			return false
		}
		if c.bitmap == 0 {
			n.removeChildAt(idx)
			n.bitmap &^= uint64(1) << bitNo
		}
		return true
	case *collision:
		i := c.find(key)
		if i < 0 {
			return false
		}
		c.leaves = append(c.leaves[:i], c.leaves[i+1:]...)
		switch len(c.leaves) {
		case 0:
			n.removeChildAt(idx)
			n.bitmap &^= uint64(1) << bitNo
		case 1:
			n.children[idx] = c.leaves[0]
		}
		return true
	default:
		return false
	}
}
