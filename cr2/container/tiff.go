// Package container implements the CR2 ingest surface: TIFF/EXIF/MakerNote
// tag walking and the embedded lossless-JPEG marker walk, producing the
// lossless.ScanParams bundle the decode core consumes. No decode algorithm
// lives here — this is pure container plumbing, the "ingest" collaborator
// the core treats as external.
package container

import (
	"encoding/binary"

	"github.com/canonraw/cr2lossless/cr2err"
)

// Header is the 16-byte CR2/TIFF preamble: byte order mark, TIFF magic,
// IFD0 offset, and the CR2-specific magic word and version. Canon only
// ever emits the little-endian ("II") TIFF variant; anything else is
// rejected rather than handled, per the explicit no-other-endianness
// non-goal.
type Header struct {
	IFD0Offset  uint32
	MajorVer    uint8
	MinorVer    uint8
}

const (
	tiffMagicLE = 0x002A
	cr2Magic    = "CR"
)

// ParseHeader reads and validates the CR2/TIFF preamble at the start of
// data.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < 16 {
		return nil, cr2err.New(cr2err.MalformedContainer, "file too short for a CR2 header")
	}
	if data[0] != 'I' || data[1] != 'I' {
		return nil, cr2err.New(cr2err.MalformedContainer, "not a little-endian TIFF/CR2 file")
	}
	if binary.LittleEndian.Uint16(data[2:4]) != tiffMagicLE {
		return nil, cr2err.New(cr2err.MalformedContainer, "bad TIFF magic value")
	}
	ifd0 := binary.LittleEndian.Uint32(data[4:8])
	if string(data[8:10]) != cr2Magic {
		return nil, cr2err.New(cr2err.MalformedContainer, "bad CR2 magic word")
	}
	return &Header{
		IFD0Offset: ifd0,
		MajorVer:   data[10],
		MinorVer:   data[11],
	}, nil
}

// readU16 and readU32 read little-endian fields at a byte offset, bounds
// checked against data's length.
func readU16(data []byte, offset uint32) (uint16, error) {
	if int(offset)+2 > len(data) {
		return 0, cr2err.New(cr2err.MalformedContainer, "field read past end of file")
	}
	return binary.LittleEndian.Uint16(data[offset : offset+2]), nil
}

func readU32(data []byte, offset uint32) (uint32, error) {
	if int(offset)+4 > len(data) {
		return 0, cr2err.New(cr2err.MalformedContainer, "field read past end of file")
	}
	return binary.LittleEndian.Uint32(data[offset : offset+4]), nil
}
