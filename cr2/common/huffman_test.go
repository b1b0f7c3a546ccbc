package common

import "testing"

func TestExtendSignExtension(t *testing.T) {
	// S2 — sign extension edges.
	cases := []struct {
		x, n, want int
	}{
		{0b100, 3, 4},
		{0b011, 3, -4},
		{0b000, 3, -7},
		{0b111, 3, 7},
		{0, 0, 0},
	}
	for _, c := range cases {
		got := Extend(c.x, c.n)
		if got != c.want {
			t.Errorf("Extend(%#b, %d) = %d, want %d", c.x, c.n, got, c.want)
		}
	}
}

func TestExtendBijectionBounds(t *testing.T) {
	// Invariant 2: extend(x, n) lies in [-(2^n-1), 2^n-1], and distinct x
	// values map to distinct diffs.
	for n := 1; n <= 12; n++ {
		seen := map[int]bool{}
		limit := 1 << uint(n)
		for x := 0; x < limit; x++ {
			d := Extend(x, n)
			if d < -(limit-1) || d > limit-1 {
				t.Fatalf("Extend(%d,%d)=%d out of bounds", x, n, d)
			}
			if seen[d] {
				t.Fatalf("Extend(%d,%d)=%d collides with a previous x", x, n, d)
			}
			seen[d] = true
		}
	}
}

// bitsToBytes packs a string of '0'/'1' characters MSB-first into bytes,
// zero-padding the final byte.
func bitsToBytes(bits string) []byte {
	out := make([]byte, 0, (len(bits)+7)/8)
	var cur byte
	n := 0
	for _, c := range bits {
		cur <<= 1
		if c == '1' {
			cur |= 1
		}
		n++
		if n == 8 {
			out = append(out, cur)
			cur, n = 0, 0
		}
	}
	if n > 0 {
		cur <<= uint(8 - n)
		out = append(out, cur)
	}
	return out
}

func TestCanonicalHuffmanConstructionAndDecode(t *testing.T) {
	// S6 — canonical code table.
	var bits [16]int
	bits[0] = 0 // length 1
	bits[1] = 1 // length 2
	bits[2] = 5 // length 3
	bits[3] = 1 // length 4
	bits[4] = 1 // length 5
	bits[5] = 1 // length 6
	bits[6] = 1 // length 7
	values := []byte{0x04, 0x05, 0x03, 0x02, 0x06, 0x01, 0x07, 0x00, 0x08, 0x09}

	table, err := BuildTable(bits, values)
	if err != nil {
		t.Fatalf("BuildTable: %v", err)
	}

	codes := []string{"00", "010", "011", "100", "101", "110", "1110", "11110", "111110", "1111110"}
	bitstring := ""
	for _, c := range codes {
		bitstring += c
	}
	// Pad with an extra byte of data that is never decoded (no EOI check
	// performed here; this test targets code construction, not
	// termination).
	data := append(bitsToBytes(bitstring), 0x00)

	bs := NewBitStream(data)
	dec := NewDecoder(bs)
	for i, want := range values {
		got, err := table.Decode(dec)
		if err != nil {
			t.Fatalf("Decode #%d: %v", i, err)
		}
		if got != want {
			t.Errorf("Decode #%d = %#x, want %#x", i, got, want)
		}
	}
}

func TestHuffmanTableRejectsZeroCodes(t *testing.T) {
	var bits [16]int
	if _, err := BuildTable(bits, nil); err == nil {
		t.Fatalf("expected error for zero-code table")
	}
}

func TestHuffmanTableRejectsMismatchedValueCount(t *testing.T) {
	var bits [16]int
	bits[0] = 2
	if _, err := BuildTable(bits, []byte{1}); err == nil {
		t.Fatalf("expected error for mismatched value count")
	}
}
