package varint

import "testing"

func TestUVarIntRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 300, 1 << 20, 1<<64 - 1}
	for _, v := range cases {
		buf := make([]byte, MaxLen64)
		n := PutUVarInt(buf, v)
		got, consumed := UVarInt(buf[:n])
		if consumed != n {
			t.Errorf("PutUVarInt(%d): wrote %d bytes, UVarInt consumed %d", v, n, consumed)
		}
		if got != v {
			t.Errorf("round trip %d: got %d", v, got)
		}
	}
}

func TestPutUVarIntSingleByte(t *testing.T) {
	buf := make([]byte, MaxLen64)
	n := PutUVarInt(buf, 42)
	if n != 1 || buf[0] != 42 {
		t.Errorf("PutUVarInt(42) = %v (n=%d), want [42] (n=1)", buf[:n], n)
	}
}

func TestPutIntOfLengthSigned(t *testing.T) {
	cases := []struct {
		v    int64
		want int
	}{
		{0, 1},
		{127, 1},
		{-128, 1},
		{128, 2},
		{-129, 2},
		{32767, 2},
		{32768, 3},
		{-1, 1},
		{1 << 40, 6},
	}
	buf := make([]byte, 8)
	for _, c := range cases {
		n := PutIntOfLength(buf, c.v, false)
		if n != c.want {
			t.Errorf("PutIntOfLength(%d, signed) = %d, want %d", c.v, n, c.want)
		}
		got := decodeSigned(buf[:n])
		if got != c.v {
			t.Errorf("decode(%d bytes) = %d, want %d", n, got, c.v)
		}
	}
}

func TestPutIntOfLengthUnsigned(t *testing.T) {
	cases := []struct {
		v    int64
		want int
	}{
		{0, 1},
		{255, 1},
		{256, 2},
		{1<<16 - 1, 2},
		{1 << 16, 3},
	}
	buf := make([]byte, 8)
	for _, c := range cases {
		n := PutIntOfLength(buf, c.v, true)
		if n != c.want {
			t.Errorf("PutIntOfLength(%d, unsigned) = %d, want %d", c.v, n, c.want)
		}
	}
}

func decodeSigned(buf []byte) int64 {
	var v int64
	for i := len(buf) - 1; i >= 0; i-- {
		v = (v << 8) | int64(buf[i])
	}
	// sign-extend from len(buf)*8 bits
	bits := uint(len(buf) * 8)
	if bits < 64 && buf[len(buf)-1]&0x80 != 0 {
		v |= -1 << bits
	}
	return v
}
