package container

import (
	"encoding/binary"

	"github.com/canonraw/cr2lossless/cr2/common"
	"github.com/canonraw/cr2lossless/cr2/lossless"
	"github.com/canonraw/cr2lossless/cr2err"
)

// segReader is a cursor over the embedded JPEG blob. Unlike common.BitStream
// (which reads byte-stuffed entropy bits) this reads structured big-endian
// marker/segment framing, the same split the teacher keeps between its
// standard.Reader (segment framing) and common.HuffmanDecoder (entropy
// bits).
type segReader struct {
	data []byte
	pos  int
}

func (r *segReader) readMarker() (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, cr2err.New(cr2err.MalformedContainer, "truncated JPEG marker")
	}
	m := binary.BigEndian.Uint16(r.data[r.pos : r.pos+2])
	r.pos += 2
	return m, nil
}

func (r *segReader) readSegment() ([]byte, error) {
	if r.pos+2 > len(r.data) {
		return nil, cr2err.New(cr2err.MalformedContainer, "truncated JPEG segment length")
	}
	length := int(binary.BigEndian.Uint16(r.data[r.pos : r.pos+2]))
	if length < 2 || r.pos+length > len(r.data) {
		return nil, cr2err.New(cr2err.MalformedContainer, "invalid JPEG segment length")
	}
	seg := r.data[r.pos+2 : r.pos+length]
	r.pos += length
	return seg, nil
}

// jpegFrame accumulates the pieces of a lossless-JPEG scan parsed out of
// the blob before the scan bytes themselves are located.
type jpegFrame struct {
	precision   int
	numLines    int
	samplesLine int
	components  int
	huffman     lossless.Huffman
	predictor   int
	scanStart   int // offset into the blob where entropy data begins
}

// parseEmbeddedJPEG walks the lossless-JPEG blob (SOI, DHT, SOF3, SOS) and
// returns the frame parameters plus the blob offset where entropy-coded
// scan data begins. All multi-byte fields inside the JPEG segments are
// big-endian.
func parseEmbeddedJPEG(blob []byte) (*jpegFrame, error) {
	r := &segReader{data: blob}

	soi, err := r.readMarker()
	if err != nil {
		return nil, err
	}
	if soi != common.MarkerSOI {
		return nil, cr2err.New(cr2err.MalformedContainer, "embedded JPEG missing SOI")
	}

	frame := &jpegFrame{predictor: -1}

	for {
		marker, err := r.readMarker()
		if err != nil {
			return nil, err
		}

		switch marker {
		case common.MarkerSOF3:
			if err := parseSOF3(r, frame); err != nil {
				return nil, err
			}
		case common.MarkerDHT:
			if err := parseDHT(r, frame); err != nil {
				return nil, err
			}
		case common.MarkerSOS:
			if err := parseSOS(r, frame); err != nil {
				return nil, err
			}
			frame.scanStart = r.pos
			return frame, nil
		case common.MarkerEOI:
			return nil, cr2err.New(cr2err.MalformedContainer, "embedded JPEG EOI before SOS")
		default:
			if common.HasLength(marker) {
				if _, err := r.readSegment(); err != nil {
					return nil, err
				}
			}
		}
	}
}

func parseSOF3(r *segReader, frame *jpegFrame) error {
	data, err := r.readSegment()
	if err != nil {
		return err
	}
	if len(data) < 6 {
		return cr2err.New(cr2err.MalformedContainer, "truncated SOF3 segment")
	}
	frame.precision = int(data[0])
	frame.numLines = int(data[1])<<8 | int(data[2])
	frame.samplesLine = int(data[3])<<8 | int(data[4])
	frame.components = int(data[5])
	if frame.components != 1 {
		return cr2err.New(cr2err.MalformedContainer, "CR2 lossless scan must be single-component")
	}
	return nil
}

func parseDHT(r *segReader, frame *jpegFrame) error {
	data, err := r.readSegment()
	if err != nil {
		return err
	}
	offset := 0
	for offset < len(data) {
		if offset+17 > len(data) {
			return cr2err.New(cr2err.MalformedContainer, "truncated DHT segment")
		}
		tcTh := data[offset]
		offset++
		tc := (tcTh >> 4) & 0x0F

		var bits [16]int
		total := 0
		for i := 0; i < 16; i++ {
			bits[i] = int(data[offset])
			total += bits[i]
			offset++
		}
		if offset+total > len(data) {
			return cr2err.New(cr2err.MalformedContainer, "DHT value list past segment end")
		}
		values := make([]byte, total)
		copy(values, data[offset:offset+total])
		offset += total

		if tc == 0 {
			frame.huffman = lossless.Huffman{Bits: bits, Values: values}
		}
	}
	return nil
}

func parseSOS(r *segReader, frame *jpegFrame) error {
	data, err := r.readSegment()
	if err != nil {
		return err
	}
	if len(data) < 4 {
		return cr2err.New(cr2err.MalformedContainer, "truncated SOS segment")
	}
	numComponents := int(data[0])
	if numComponents != 1 {
		return cr2err.New(cr2err.MalformedContainer, "CR2 lossless scan must be single-component")
	}
	// data layout: Ns, (Cs, Td/Ta) * Ns, Ss, Se, AhAl
	frame.predictor = int(data[1+numComponents*2])
	if frame.predictor != 1 {
		return cr2err.New(cr2err.MalformedContainer, "predictor selection must be 1 (Ra); CR2 never signals any other JPEG Lossless predictor")
	}
	return nil
}
