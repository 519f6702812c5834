package hamt

import "testing"

func TestNonRootCapacity(t *testing.T) {
	cases := []struct {
		shift uint
		want  int
	}{
		{0, 4},  // level 0: root's direct children
		{6, 3},  // level 1
		{12, 3}, // level 2
		{18, 2}, // level 3: "deep nodes" floor
		{24, 2},
	}
	for _, c := range cases {
		if got := nonRootCapacity(c.shift); got != c.want {
			t.Errorf("nonRootCapacity(shift=%d) = %d, want %d", c.shift, got, c.want)
		}
	}
}

func TestGrowIfFullGrowsByOne(t *testing.T) {
	n := newInterior(18) // capacity 2
	if cap(n.children) != 2 {
		t.Fatalf("initial capacity = %d, want 2", cap(n.children))
	}
	n.insertChildAt(0, &leaf{hash: 1})
	n.insertChildAt(1, &leaf{hash: 2})
	if cap(n.children) != 2 {
		t.Fatalf("capacity after filling = %d, want 2", cap(n.children))
	}
	n.insertChildAt(2, &leaf{hash: 3})
	if cap(n.children) != 3 {
		t.Fatalf("capacity after overflow insert = %d, want 3 (grow by exactly 1)", cap(n.children))
	}
	if len(n.children) != 3 {
		t.Fatalf("len = %d, want 3", len(n.children))
	}
}

func TestRootNeverGrows(t *testing.T) {
	root := newRootInterior()
	if cap(root.children) != kMaxChildren {
		t.Fatalf("root capacity = %d, want %d", cap(root.children), kMaxChildren)
	}
	for i := 0; i < kMaxChildren; i++ {
		root.insertChildAt(i, &leaf{hash: uint32(i)})
	}
	if cap(root.children) != kMaxChildren {
		t.Fatalf("root capacity changed to %d after filling, want unchanged %d", cap(root.children), kMaxChildren)
	}
}

func TestSliceUsesGoShiftSemanticsPastHashWidth(t *testing.T) {
	hash := uint32(0xFFFFFFFF)
	if got := slice(hash, 30); got != 0b11 {
		t.Errorf("slice(shift=30) = %#b, want 0b11", got)
	}
	if got := slice(hash, 36); got != 0 {
		t.Errorf("slice(shift=36) = %#b, want 0 (all bits shifted out)", got)
	}
}
