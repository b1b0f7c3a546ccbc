// Package sink implements the consumers of a decoded CR2 image: a raw
// 16-bit binary dump and an optional grayscale PNG visualisation. Neither
// is part of the decode core; both are external collaborators the core's
// output is handed to, the same separation the teacher draws between a
// codec's decode path and its examples/export_png visualisation helper.
package sink

import (
	"encoding/binary"
	"io"

	"github.com/canonraw/cr2lossless/cr2/lossless"
	"github.com/canonraw/cr2lossless/cr2err"
)

// WriteDump writes img to w as two little-endian uint32 integers (width,
// height) followed by width*height 16-bit little-endian signed samples.
// The core emits integers; this sink fixes the on-disk encoding at 16 bits
// since CR2 precision (up to 16, 14 in practice) would lose information
// under a byte-quantised dump.
func WriteDump(w io.Writer, img *lossless.DecodedImage) error {
	var header [8]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(img.Width))
	binary.LittleEndian.PutUint32(header[4:8], uint32(img.Height))
	if _, err := w.Write(header[:]); err != nil {
		return cr2err.Wrap(cr2err.IoError, err, "writing dump header")
	}

	buf := make([]byte, 2*len(img.Samples))
	for i, s := range img.Samples {
		binary.LittleEndian.PutUint16(buf[2*i:2*i+2], uint16(int16(s)))
	}
	if _, err := w.Write(buf); err != nil {
		return cr2err.Wrap(cr2err.IoError, err, "writing dump samples")
	}
	return nil
}
