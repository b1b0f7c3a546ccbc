// Package lossless implements the CR2 lossless-JPEG (SOF3) entropy decode
// core: Huffman/category decode, signed-difference sign-extension, and
// reassembly of Canon's horizontally sliced scan into a single image plane.
package lossless

import "github.com/canonraw/cr2lossless/cr2err"

// SliceWidths is the CR2 slice tag triple (n, w_common, w_last): n slices of
// width w_common followed by one slice of width w_last. w_last == 0 is a
// legal degenerate case meaning there is no trailing slice.
type SliceWidths struct {
	N       int
	WCommon int
	WLast   int
}

// Huffman is the DHT payload: L[i] (1-indexed conceptually, stored 0-indexed
// here) is the number of codes of bit length i+1, and Values gives the
// symbol for each code in canonical order.
type Huffman struct {
	Bits   [16]int
	Values []byte
}

// ScanParams is the immutable bundle Ingest hands to the decode core: scan
// geometry, the Huffman table definition, sample precision, and the
// entropy-coded byte range (from just after SOS through the terminal EOI
// marker), held by reference.
type ScanParams struct {
	ImageWidth  int
	ImageHeight int
	SliceWidths SliceWidths
	Huffman     Huffman
	// PredictorBits is the sample precision (CR2 is 14 in practice);
	// difference magnitudes fit in a signed integer of PredictorBits+1
	// bits.
	PredictorBits int
	// PredictorSelection is the SOS Ss field. CR2 always signals 1 (Ra,
	// the previous sample on the scan line); the reconstructor only ever
	// implements that one-dimensional chain (Rb and Rc are never
	// tracked), so the field is carried rather than hardcoded purely so
	// Validate can reject anything else with a diagnosable error instead
	// of silently decoding through a meaningless Rb=Rc=0 branch.
	PredictorSelection int
	// ScanBytes is the byte slice of the entropy-coded segment, borrowed
	// (not copied) for the duration of decode.
	ScanBytes []byte
}

// Validate checks the invariants ScanParams must satisfy before decode:
// positive dimensions, a slice layout that sums to ImageWidth, and a sane
// precision.
func (p *ScanParams) Validate() error {
	if p.ImageWidth <= 0 || p.ImageHeight <= 0 {
		return cr2err.New(cr2err.MalformedContainer, "image dimensions must be positive")
	}
	if p.PredictorBits < 2 || p.PredictorBits > 16 {
		return cr2err.New(cr2err.MalformedContainer, "predictor_bits out of range")
	}
	if p.PredictorSelection != 1 {
		return cr2err.New(cr2err.MalformedContainer, "predictor selection must be 1 (Ra); CR2 never signals any other JPEG Lossless predictor")
	}
	sw := p.SliceWidths
	if sw.N < 0 || sw.WCommon < 0 || sw.WLast < 0 {
		return cr2err.New(cr2err.MalformedContainer, "negative slice width field")
	}
	if sw.N == 0 && sw.WLast == 0 {
		return cr2err.New(cr2err.MalformedContainer, "slice layout defines no slices")
	}
	if sw.WCommon*sw.N+sw.WLast != p.ImageWidth {
		return cr2err.New(cr2err.MalformedContainer, "slice widths do not sum to image_width")
	}
	return nil
}

// DecodedImage is a rectangular array of reconstructed (post-predictor)
// signed samples, row-major by image coordinates.
type DecodedImage struct {
	Width   int
	Height  int
	Samples []int
}

// At returns the sample at image coordinates (x, y).
func (img *DecodedImage) At(x, y int) int {
	return img.Samples[y*img.Width+x]
}

func (img *DecodedImage) set(x, y, v int) {
	img.Samples[y*img.Width+x] = v
}
