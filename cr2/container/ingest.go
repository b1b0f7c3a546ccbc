package container

import (
	"github.com/canonraw/cr2lossless/cr2/lossless"
	"github.com/canonraw/cr2lossless/cr2err"
)

const (
	tagStripOffset     = 273
	tagStripByteCounts = 279
	tagCR2Slice        = 50752
)

// Ingest parses a complete CR2 file held in memory and produces the
// ScanParams bundle the decode core consumes: the CR2/TIFF header, IFD0's
// strip location and slice layout, the EXIF/MakerNote SensorInfo
// cross-check, and the embedded JPEG's DHT/SOF3/SOS framing.
func Ingest(data []byte) (*lossless.ScanParams, error) {
	header, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	ifd0, err := ReadIFD(data, header.IFD0Offset)
	if err != nil {
		return nil, err
	}

	stripOffsetEntry, ok := Find(ifd0, tagStripOffset)
	if !ok {
		return nil, cr2err.New(cr2err.MalformedContainer, "missing StripOffset tag")
	}
	stripByteCountsEntry, ok := Find(ifd0, tagStripByteCounts)
	if !ok {
		return nil, cr2err.New(cr2err.MalformedContainer, "missing StripByteCounts tag")
	}
	sliceEntry, ok := Find(ifd0, tagCR2Slice)
	if !ok {
		return nil, cr2err.New(cr2err.MalformedContainer, "missing CR2Slice tag")
	}

	stripOffset := stripOffsetEntry.ValueOffset
	stripByteCounts, err := entryScalar(data, stripByteCountsEntry)
	if err != nil {
		return nil, err
	}

	sliceVals, err := ReadShorts(data, sliceEntry)
	if err != nil {
		return nil, err
	}
	if len(sliceVals) < 3 {
		return nil, cr2err.New(cr2err.MalformedContainer, "CR2Slice tag must have 3 values")
	}
	sliceWidths := lossless.SliceWidths{
		N:       int(sliceVals[0]),
		WCommon: int(sliceVals[1]),
		WLast:   int(sliceVals[2]),
	}

	sensor, err := ReadExifAndMakerNote(data, ifd0)
	if err != nil {
		return nil, err
	}

	if int(stripOffset)+int(stripByteCounts) > len(data) {
		return nil, cr2err.New(cr2err.MalformedContainer, "strip extends past end of file")
	}
	blob := data[stripOffset : stripOffset+stripByteCounts]

	frame, err := parseEmbeddedJPEG(blob)
	if err != nil {
		return nil, err
	}

	if frame.samplesLine != sensor.SensorWidth || frame.numLines != sensor.SensorHeight {
		return nil, cr2err.New(cr2err.MalformedContainer, "SOF3 dimensions do not match MakerNote SensorInfo")
	}
	if frame.huffman.Values == nil {
		return nil, cr2err.New(cr2err.MalformedContainer, "embedded JPEG missing a DC Huffman table")
	}

	return &lossless.ScanParams{
		ImageWidth:         frame.samplesLine,
		ImageHeight:        frame.numLines,
		SliceWidths:        sliceWidths,
		Huffman:            frame.huffman,
		PredictorBits:      frame.precision,
		PredictorSelection: frame.predictor,
		ScanBytes:          blob[frame.scanStart:],
	}, nil
}

// entryScalar reads a SHORT or LONG-typed entry's single scalar value,
// handling TIFF's inline-vs-pointer storage rule.
func entryScalar(data []byte, e Entry) (uint32, error) {
	if e.Type == typeShort {
		return uint32(uint16(e.ValueOffset & 0xFFFF)), nil
	}
	return e.ValueOffset, nil
}
