package fleece

import "testing"

func TestEncodeDecodePointerRoundTrip(t *testing.T) {
	cases := []struct {
		rel   uint32
		width int
	}{
		{1, kNarrow},
		{0x3FFF, kNarrow},
		{2, kWide},
		{0x3FFFFFFF, kWide},
	}
	for _, c := range cases {
		b := encodePointer(c.rel, c.width)
		var slice []byte
		if c.width == kNarrow {
			slice = b[:2]
		} else {
			slice = b[:4]
		}
		if !isPointerByte(slice[0]) {
			t.Fatalf("encodePointer(%d, %d) did not set the pointer bit", c.rel, c.width)
		}
		got := decodePointerOffset(slice)
		if got != c.rel*2 {
			t.Fatalf("decodePointerOffset = %d, want %d", got, c.rel*2)
		}
	}
}

func TestIsPointerByte(t *testing.T) {
	if isPointerByte(0x00) {
		t.Fatal("0x00 should not be a pointer byte")
	}
	if isPointerByte(0x70) {
		t.Fatal("tag 7 (dict) should not be a pointer byte")
	}
	if !isPointerByte(0x80) {
		t.Fatal("tag 8 should be a pointer byte")
	}
	if !isPointerByte(0xF0) {
		t.Fatal("tag F should be a pointer byte")
	}
}
