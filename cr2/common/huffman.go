package common

import "github.com/canonraw/cr2lossless/cr2err"

// Table is a canonical JPEG Huffman table built from the DHT "bits" counts
// (Bits[i] = number of codes of length i+1) and the symbol value list
// (Values, in canonical code order). Construction follows JPEG Annex C/F:
// starting from the candidate set {0,1} at length 1, the first Bits[i]
// candidates (ascending) become the length-i codes paired left to right
// with Values, the rest double (c -> 2c, 2c+1) to become the next length's
// candidates. Table.build walks that construction directly and derives the
// min/max code and value-pointer tables plus an 8-bit fast lookup from it,
// the same representation used by every production JPEG decoder that needs
// sub-byte decode latency.
type Table struct {
	Bits   [16]int
	Values []byte

	minCode [16]int32
	maxCode [16]int32
	valPtr  [16]int32

	// lookup holds, for each possible 8-bit peek, (codeLen<<8)|value, or -1
	// if no code of length <= 8 matches that prefix.
	lookup [256]int16

	maxLen int
	minLen int
}

// BuildTable constructs and validates a Table from DHT bit counts and
// values. It returns InvalidHuffmanTable if the value list doesn't have
// exactly sum(bits) entries, or if zero codes are defined.
func BuildTable(bits [16]int, values []byte) (*Table, error) {
	total := 0
	for _, n := range bits {
		if n < 0 {
			return nil, cr2err.New(cr2err.InvalidHuffmanTable, "negative code count")
		}
		total += n
	}
	if total == 0 {
		return nil, cr2err.New(cr2err.InvalidHuffmanTable, "Huffman table defines zero codes")
	}
	if total != len(values) {
		return nil, cr2err.New(cr2err.InvalidHuffmanTable, "code length counts do not match value list size")
	}

	t := &Table{Bits: bits, Values: values}
	t.build()
	return t, nil
}

// build assigns canonical codes by walking the candidate set bit length by
// bit length: it starts from {0,1} at length 1, hands the first Bits[l]
// candidates (in ascending order) to the next Bits[l] values, and doubles
// everything left over (c -> 2c, 2c+1) to form the next length's
// candidates. Each assigned code also populates the min/max/valPtr entry
// for its length and, when the length is 8 bits or shorter, every matching
// 8-bit prefix of the fast lookup table.
func (t *Table) build() {
	for i := range t.lookup {
		t.lookup[i] = -1
	}

	candidates := []int32{0, 1}
	p := 0
	t.minLen, t.maxLen = 0, 0
	for l := 0; l < 16; l++ {
		n := t.Bits[l]
		if n == 0 {
			t.maxCode[l] = -1
		} else {
			length := l + 1
			if t.minLen == 0 {
				t.minLen = length
			}
			t.maxLen = length
			t.valPtr[l] = int32(p)
			t.minCode[l] = candidates[0]
			t.maxCode[l] = candidates[n-1]

			for _, code := range candidates[:n] {
				if length <= 8 {
					prefix := code << uint(8-length)
					for j := int32(0); j < 1<<uint(8-length); j++ {
						t.lookup[prefix+j] = int16(length<<8 | int(t.Values[p]))
					}
				}
				p++
			}
		}

		doubled := make([]int32, 0, 2*(len(candidates)-n))
		for _, c := range candidates[n:] {
			doubled = append(doubled, 2*c, 2*c+1)
		}
		candidates = doubled
	}
}

// MaxLen is the longest code length (in bits) this table defines.
func (t *Table) MaxLen() int { return t.maxLen }

// Decoder decodes Huffman symbols and signed differences from a BitStream.
type Decoder struct {
	bs *BitStream
}

// NewDecoder wraps bs for Huffman-symbol decoding.
func NewDecoder(bs *BitStream) *Decoder {
	return &Decoder{bs: bs}
}

// Decode reads one Huffman symbol: peek up to 8 bits for the fast lookup
// path, otherwise peek progressively longer prefixes (up to the table's
// MaxLen) and compare against minCode/maxCode/valPtr, consuming exactly the
// matched code's length. NoMatchingCode is returned if no code of any
// defined length matches.
func (t *Table) Decode(d *Decoder) (byte, error) {
	if peek, err := d.bs.PeekBits(8); err == nil {
		if entry := t.lookup[peek]; entry >= 0 {
			n := int(entry >> 8)
			d.bs.Consume(n)
			return byte(entry & 0xFF), nil
		}
	}

	for l := 0; l < 16; l++ {
		length := l + 1
		if t.maxCode[l] < 0 {
			continue
		}
		code, err := d.bs.PeekBits(length)
		if err != nil {
			return 0, err
		}
		if int32(code) <= t.maxCode[l] && int32(code) >= t.minCode[l] {
			idx := t.valPtr[l] + int32(code) - t.minCode[l]
			if idx >= 0 && int(idx) < len(t.Values) {
				d.bs.Consume(length)
				return t.Values[idx], nil
			}
		}
	}

	return 0, cr2err.New(cr2err.NoMatchingCode, "no Huffman code of any defined length matched")
}

// ReceiveExtend performs JPEG's combined RECEIVE + EXTEND: it reads ssss
// raw bits (the "category" magnitude width) and sign-extends them into a
// signed difference. extend(x, n): if the high bit of x in n bits is 1,
// diff = x; else diff = x - (1<<n) + 1.
func (d *Decoder) ReceiveExtend(ssss int) (int, error) {
	if ssss == 0 {
		return 0, nil
	}
	raw, err := d.bs.ReadBits(ssss)
	if err != nil {
		return 0, err
	}
	return Extend(int(raw), ssss), nil
}

// Extend is the bare JPEG sign-extension function, exposed standalone so it
// can be exercised directly by tests without routing through a BitStream.
func Extend(x, n int) int {
	if n == 0 {
		return 0
	}
	if x < (1 << uint(n-1)) {
		return x - (1 << uint(n)) + 1
	}
	return x
}
