package lossless

import (
	"golang.org/x/exp/slices"

	"github.com/canonraw/cr2lossless/cr2err"
)

// Slice describes one vertical strip of the CR2 image plane: its width and
// the x-coordinate in the full image at which it starts.
type Slice struct {
	Width   int
	XOffset int
}

// SlicePlan is the expanded (n, w_common, w_last) slice tag: the reusable
// value the reconstructor walks slice-major, row-major. Promoted out of the
// per-sample hot loop into its own constructed-once value, the way the
// decode core keeps its ScanParams-derived state separate from the
// per-sample decode work.
type SlicePlan struct {
	Slices []Slice
}

// NewSlicePlan expands sw into n slices of WCommon followed (if WLast > 0)
// by one trailing slice of WLast, computing each slice's starting
// x-coordinate.
func NewSlicePlan(sw SliceWidths) (*SlicePlan, error) {
	if sw.N == 0 && sw.WLast == 0 {
		return nil, cr2err.New(cr2err.MalformedContainer, "slice layout defines no slices")
	}

	offsets := make([]int, 0, sw.N+1)
	x := 0
	for i := 0; i < sw.N; i++ {
		offsets = append(offsets, x)
		x += sw.WCommon
	}
	if sw.WLast > 0 {
		offsets = append(offsets, x)
	}

	// Defensive: a hand-edited or hostile CR2Slice tag could in principle
	// present offsets out of order; sort and drop duplicates before
	// building the final slice list so the image-plane write plan is
	// always monotonic.
	slices.Sort(offsets)
	offsets = slices.Compact(offsets)

	plan := &SlicePlan{Slices: make([]Slice, 0, len(offsets))}
	for i, off := range offsets {
		w := sw.WCommon
		if sw.WLast > 0 && i == len(offsets)-1 && off == sw.N*sw.WCommon {
			w = sw.WLast
		}
		plan.Slices = append(plan.Slices, Slice{Width: w, XOffset: off})
	}
	return plan, nil
}

// TotalWidth is the sum of every slice's width, which Decode and
// DecodeSlicesConcurrently cross-check against ImageWidth.
func (p *SlicePlan) TotalWidth() int {
	total := 0
	for _, s := range p.Slices {
		total += s.Width
	}
	return total
}
