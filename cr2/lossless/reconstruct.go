package lossless

import (
	"sync"

	"github.com/canonraw/cr2lossless/cr2/common"
	"github.com/canonraw/cr2lossless/cr2err"
)

// Decode drives the per-sample decode loop over params and returns the
// reconstructed image. The entropy stream is emitted slice-major, then
// row-major within each slice; the predictor resets to the initial DC seed
// at every slice-row boundary (not the image-row boundary), and for every
// later sample on that row becomes the previously decoded sample.
func Decode(params *ScanParams) (*DecodedImage, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	plan, err := NewSlicePlan(params.SliceWidths)
	if err != nil {
		return nil, err
	}
	if plan.TotalWidth() != params.ImageWidth {
		return nil, cr2err.New(cr2err.MalformedContainer, "slice plan width does not match image_width")
	}

	table, err := common.BuildTable(params.Huffman.Bits, params.Huffman.Values)
	if err != nil {
		return nil, err
	}

	bs := common.NewBitStream(params.ScanBytes)
	huff := common.NewDecoder(bs)

	img := &DecodedImage{
		Width:   params.ImageWidth,
		Height:  params.ImageHeight,
		Samples: make([]int, params.ImageWidth*params.ImageHeight),
	}

	initial := 1 << uint(params.PredictorBits-1)
	var decoded int64

	for _, slice := range plan.Slices {
		for y := 0; y < params.ImageHeight; y++ {
			predictor := initial
			for x := 0; x < slice.Width; x++ {
				sample, err := decodeOneSample(table, huff, params.PredictorSelection, predictor)
				if err != nil {
					return nil, annotate(err, bs, decoded)
				}
				img.set(slice.XOffset+x, y, sample)
				predictor = sample
				decoded++
			}
		}
	}

	if decoded != int64(params.ImageWidth)*int64(params.ImageHeight) {
		return nil, cr2err.New(cr2err.UnexpectedEndOfScan, "decoded sample count mismatch").WithSample(decoded)
	}
	if err := bs.ExpectEOI(); err != nil {
		return nil, err
	}

	return img, nil
}

// decodeOneSample implements spec 4.3's per-sample decode: a Huffman
// category symbol in [0,16], an optional raw magnitude sign-extended into a
// signed difference, added to the predicted value.
func decodeOneSample(table *common.Table, huff *common.Decoder, predictorSelection, predictor int) (int, error) {
	category, err := table.Decode(huff)
	if err != nil {
		return 0, err
	}

	diff := 0
	if category > 0 {
		diff, err = huff.ReceiveExtend(int(category))
		if err != nil {
			return 0, err
		}
	}

	predicted := Predictor(predictorSelection, predictor, 0, 0)
	return predicted + diff, nil
}

func annotate(err error, bs *common.BitStream, decoded int64) error {
	var ce *cr2err.Error
	if e, ok := err.(*cr2err.Error); ok {
		ce = e
	} else {
		ce = cr2err.Wrap(cr2err.IoError, err, "entropy decode failed")
	}
	if ce.Offset < 0 {
		ce = ce.WithOffset(bs.Offset())
	}
	if ce.SampleIndex < 0 {
		ce = ce.WithSample(decoded)
	}
	return ce
}

// DecodeSlicesConcurrently decodes params the way Decode does, except the
// predictor-accumulation and image-write phase runs one goroutine per
// slice. The Huffman symbol stream itself is still a single sequential
// pass (it is one shared bit-stuffed bitstream; there is no way to seek
// into an arbitrary slice's bits without having consumed everything before
// it), but the category/diff values for the whole scan are collected up
// front into a flat, slice-ordered buffer, and applying the predictor chain
// and writing into the (disjoint, per-slice) image columns is independent
// work that parallelizes safely. Output is bit-identical to Decode.
func DecodeSlicesConcurrently(params *ScanParams) (*DecodedImage, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	plan, err := NewSlicePlan(params.SliceWidths)
	if err != nil {
		return nil, err
	}
	if plan.TotalWidth() != params.ImageWidth {
		return nil, cr2err.New(cr2err.MalformedContainer, "slice plan width does not match image_width")
	}

	table, err := common.BuildTable(params.Huffman.Bits, params.Huffman.Values)
	if err != nil {
		return nil, err
	}

	bs := common.NewBitStream(params.ScanBytes)
	huff := common.NewDecoder(bs)

	total := params.ImageWidth * params.ImageHeight
	diffs := make([]int, 0, total)
	var decoded int64
	for _, slice := range plan.Slices {
		for y := 0; y < params.ImageHeight; y++ {
			for x := 0; x < slice.Width; x++ {
				category, err := table.Decode(huff)
				if err != nil {
					return nil, annotate(err, bs, decoded)
				}
				diff := 0
				if category > 0 {
					diff, err = huff.ReceiveExtend(int(category))
					if err != nil {
						return nil, annotate(err, bs, decoded)
					}
				}
				diffs = append(diffs, diff)
				decoded++
			}
		}
	}

	if decoded != int64(total) {
		return nil, cr2err.New(cr2err.UnexpectedEndOfScan, "decoded sample count mismatch").WithSample(decoded)
	}
	if err := bs.ExpectEOI(); err != nil {
		return nil, err
	}

	img := &DecodedImage{
		Width:   params.ImageWidth,
		Height:  params.ImageHeight,
		Samples: make([]int, total),
	}
	initial := 1 << uint(params.PredictorBits-1)

	var wg sync.WaitGroup
	offset := 0
	for _, slice := range plan.Slices {
		sliceDiffs := diffs[offset : offset+slice.Width*params.ImageHeight]
		offset += slice.Width * params.ImageHeight

		wg.Add(1)
		go func(s Slice, sd []int) {
			defer wg.Done()
			i := 0
			for y := 0; y < params.ImageHeight; y++ {
				predictor := initial
				for x := 0; x < s.Width; x++ {
					predicted := Predictor(params.PredictorSelection, predictor, 0, 0)
					sample := predicted + sd[i]
					img.set(s.XOffset+x, y, sample)
					predictor = sample
					i++
				}
			}
		}(slice, sliceDiffs)
	}
	wg.Wait()

	return img, nil
}
