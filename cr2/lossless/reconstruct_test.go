package lossless

import (
	"strings"
	"testing"

	"github.com/canonraw/cr2lossless/cr2err"
)

// twoSymbolHuffman is the table used by scenario S1: two one-bit codes,
// "0" -> category 0, "1" -> category 1.
func twoSymbolHuffman() Huffman {
	var bits [16]int
	bits[0] = 2
	return Huffman{Bits: bits, Values: []byte{0, 1}}
}

func TestDecodeMinimalSynthetic(t *testing.T) {
	// S1 — minimal synthetic scan.
	params := &ScanParams{
		ImageWidth:         4,
		ImageHeight:        1,
		SliceWidths:        SliceWidths{N: 1, WCommon: 4, WLast: 0},
		Huffman:            twoSymbolHuffman(),
		PredictorBits:      8,
		PredictorSelection: 1,
		ScanBytes:          []byte{0x69, 0xFF, 0xD9},
	}

	img, err := Decode(params)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []int{128, 129, 129, 128}
	for i, w := range want {
		if img.Samples[i] != w {
			t.Errorf("sample %d = %d, want %d", i, img.Samples[i], w)
		}
	}
}

func TestDecodeSliceBoundaryPredictorReset(t *testing.T) {
	// S5 — two slices of width 2, height 2: predictor resets at every
	// slice row, not every image row.
	params := &ScanParams{
		ImageWidth:         4,
		ImageHeight:        2,
		SliceWidths:        SliceWidths{N: 1, WCommon: 2, WLast: 2},
		Huffman:            twoSymbolHuffman(),
		PredictorBits:      8,
		PredictorSelection: 1,
		ScanBytes:          []byte{0xAA, 0xAA, 0xFF, 0xD9},
	}

	img, err := Decode(params)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []int{127, 126, 127, 126, 127, 126, 127, 126}
	for i, w := range want {
		if img.Samples[i] != w {
			t.Errorf("sample %d = %d, want %d", i, img.Samples[i], w)
		}
	}
}

func TestDecodeConcurrentMatchesSequential(t *testing.T) {
	params := &ScanParams{
		ImageWidth:         4,
		ImageHeight:        2,
		SliceWidths:        SliceWidths{N: 1, WCommon: 2, WLast: 2},
		Huffman:            twoSymbolHuffman(),
		PredictorBits:      8,
		PredictorSelection: 1,
		ScanBytes:          []byte{0xAA, 0xAA, 0xFF, 0xD9},
	}

	seq, err := Decode(params)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	conc, err := DecodeSlicesConcurrently(params)
	if err != nil {
		t.Fatalf("DecodeSlicesConcurrently: %v", err)
	}
	for i := range seq.Samples {
		if seq.Samples[i] != conc.Samples[i] {
			t.Fatalf("sample %d: sequential=%d concurrent=%d", i, seq.Samples[i], conc.Samples[i])
		}
	}
}

func TestDecodeCategoryZeroConsumesNoExtraBits(t *testing.T) {
	// category=0 yields diff=0 and does not consume extra bits: an
	// all-category-0 scan must decode to a flat image at the initial
	// predictor value with exactly width*height Huffman symbols consumed.
	params := &ScanParams{
		ImageWidth:         3,
		ImageHeight:        1,
		SliceWidths:        SliceWidths{N: 1, WCommon: 3, WLast: 0},
		Huffman:            twoSymbolHuffman(),
		PredictorBits:      8,
		PredictorSelection: 1,
		ScanBytes:          []byte{0b000_11111, 0xFF, 0xD9},
	}
	img, err := Decode(params)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for i, s := range img.Samples {
		if s != 128 {
			t.Errorf("sample %d = %d, want 128", i, s)
		}
	}
}

func TestSlicePlanDegenerateWLastZero(t *testing.T) {
	// Boundary behaviour: w_last == 0 is n slices of w_common, no trailing
	// slice.
	plan, err := NewSlicePlan(SliceWidths{N: 2, WCommon: 2, WLast: 0})
	if err != nil {
		t.Fatalf("NewSlicePlan: %v", err)
	}
	if len(plan.Slices) != 2 {
		t.Fatalf("expected 2 slices, got %d", len(plan.Slices))
	}
	if plan.TotalWidth() != 4 {
		t.Fatalf("expected total width 4, got %d", plan.TotalWidth())
	}
}

func TestDecodeFewerSamplesThanExpectedIsFatal(t *testing.T) {
	params := &ScanParams{
		ImageWidth:         4,
		ImageHeight:        1,
		SliceWidths:        SliceWidths{N: 1, WCommon: 4, WLast: 0},
		Huffman:            twoSymbolHuffman(),
		PredictorBits:      8,
		PredictorSelection: 1,
		ScanBytes:          []byte{}, // no entropy data at all
	}
	_, err := Decode(params)
	if err == nil {
		t.Fatalf("expected an error for a truncated entropy stream")
	}
	if !cr2err.Is(err, cr2err.UnexpectedEndOfScan) {
		t.Fatalf("expected UnexpectedEndOfScan, got %v", err)
	}
}

func TestValidateRejectsNonRaPredictorSelection(t *testing.T) {
	// Predictor 2 is a legal JPEG Lossless selection value in general, but
	// CR2 never signals anything but 1 (Ra) and the reconstructor has no
	// Rb/Rc tracking to make any other value meaningful.
	params := &ScanParams{
		ImageWidth:         4,
		ImageHeight:        1,
		SliceWidths:        SliceWidths{N: 1, WCommon: 4, WLast: 0},
		Huffman:            twoSymbolHuffman(),
		PredictorBits:      8,
		PredictorSelection: 2,
		ScanBytes:          []byte{0x69, 0xFF, 0xD9},
	}
	err := params.Validate()
	if err == nil {
		t.Fatalf("expected Validate to reject predictor selection 2")
	}
	if !cr2err.Is(err, cr2err.MalformedContainer) {
		t.Fatalf("expected MalformedContainer, got %v", err)
	}

	if _, err := Decode(params); !cr2err.Is(err, cr2err.MalformedContainer) {
		t.Fatalf("expected Decode to surface the same MalformedContainer, got %v", err)
	}
}

// canonicalCode is one entry of a test-only re-derivation of the canonical
// code assignment, built independently of common.BuildTable's min/max/
// valPtr representation so the round-trip test (invariant 3) is an
// independent check, not a tautology against the production code path.
type canonicalCode struct {
	code   uint32
	length int
}

func canonicalCodes(bits [16]int, values []byte) map[byte]canonicalCode {
	candidates := []uint32{0, 1}
	out := make(map[byte]canonicalCode, len(values))
	vi := 0
	for length := 1; length <= 16 && vi < len(values); length++ {
		n := bits[length-1]
		take := candidates[:n]
		rest := candidates[n:]
		for _, c := range take {
			out[values[vi]] = canonicalCode{code: c, length: length}
			vi++
		}
		next := make([]uint32, 0, len(rest)*2)
		for _, c := range rest {
			next = append(next, 2*c, 2*c+1)
		}
		candidates = next
	}
	return out
}

// categoryOf and rawOf invert Extend: given a signed difference, recover
// the JPEG category (bit-width) and the raw bit pattern that would
// re-encode to it.
func categoryOf(d int) int {
	if d == 0 {
		return 0
	}
	v := d
	if v < 0 {
		v = -v
	}
	n := 0
	for (1 << uint(n)) <= v {
		n++
	}
	return n
}

func rawOf(d, n int) int {
	if n == 0 {
		return 0
	}
	if d >= 0 {
		return d
	}
	return d + (1 << uint(n)) - 1
}

type bitWriter struct{ sb strings.Builder }

func (w *bitWriter) writeBits(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		if v&(1<<uint(i)) != 0 {
			w.sb.WriteByte('1')
		} else {
			w.sb.WriteByte('0')
		}
	}
}

func TestRoundTripReencodeMatchesOriginalBits(t *testing.T) {
	// Invariant 3: re-encoding the decoder's output differences with a
	// canonical encoder seeded from the same Huffman table reproduces the
	// original entropy stream's logical bit sequence.
	huff := twoSymbolHuffman()
	params := &ScanParams{
		ImageWidth:         4,
		ImageHeight:        1,
		SliceWidths:        SliceWidths{N: 1, WCommon: 4, WLast: 0},
		Huffman:            huff,
		PredictorBits:      8,
		PredictorSelection: 1,
		ScanBytes:          []byte{0x69, 0xFF, 0xD9},
	}
	img, err := Decode(params)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	predictor := 1 << uint(params.PredictorBits-1)
	diffs := make([]int, len(img.Samples))
	for i, s := range img.Samples {
		diffs[i] = s - predictor
		predictor = s
	}

	codes := canonicalCodes(huff.Bits, huff.Values)
	var bw bitWriter
	for _, d := range diffs {
		cat := categoryOf(d)
		c := codes[byte(cat)]
		bw.writeBits(c.code, c.length)
		if cat > 0 {
			bw.writeBits(uint32(rawOf(d, cat)), cat)
		}
	}

	// 0x69 = 0110 1001; the first 6 bits ("011010") are the logical bits
	// consumed by the 4 decoded symbols above.
	want := "011010"
	if bw.sb.String() != want {
		t.Fatalf("re-encoded bits = %q, want %q", bw.sb.String(), want)
	}
}
