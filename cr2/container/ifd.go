package container

import (
	"encoding/binary"

	"golang.org/x/exp/slices"

	"github.com/canonraw/cr2lossless/cr2err"
)

// TIFF field types relevant to the tags this ingest surface reads.
const (
	typeByte     = 1
	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
)

// Entry is one 12-byte TIFF IFD directory entry.
type Entry struct {
	Tag         uint16
	Type        uint16
	Count       uint32
	ValueOffset uint32 // raw 4-byte field; interpretation depends on Type/Count
}

// typeSize returns the byte width of one value of the given TIFF type, or 0
// if unknown.
func typeSize(t uint16) int {
	switch t {
	case typeByte, typeASCII:
		return 1
	case typeShort:
		return 2
	case typeLong:
		return 4
	case typeRational:
		return 8
	default:
		return 0
	}
}

// ReadIFD parses the IFD directory at offset: a uint16 entry count followed
// by that many 12-byte entries. Entries are returned sorted by tag, so
// callers can rely on deterministic tag lookup even if a hand-edited or
// hostile file presents them out of TIFF's usual ascending order.
func ReadIFD(data []byte, offset uint32) ([]Entry, error) {
	count, err := readU16(data, offset)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, count)
	base := offset + 2
	for i := uint16(0); i < count; i++ {
		entryOff := base + uint32(i)*12
		if int(entryOff)+12 > len(data) {
			return nil, cr2err.New(cr2err.MalformedContainer, "IFD entry past end of file")
		}
		tag := binary.LittleEndian.Uint16(data[entryOff : entryOff+2])
		typ := binary.LittleEndian.Uint16(data[entryOff+2 : entryOff+4])
		cnt := binary.LittleEndian.Uint32(data[entryOff+4 : entryOff+8])
		val := binary.LittleEndian.Uint32(data[entryOff+8 : entryOff+12])
		entries = append(entries, Entry{Tag: tag, Type: typ, Count: cnt, ValueOffset: val})
	}

	slices.SortFunc(entries, func(a, b Entry) int { return int(a.Tag) - int(b.Tag) })
	return entries, nil
}

// Find returns the first entry with the given tag.
func Find(entries []Entry, tag uint16) (Entry, bool) {
	i, ok := slices.BinarySearchFunc(entries, tag, func(e Entry, t uint16) int {
		return int(e.Tag) - int(t)
	})
	if !ok || i >= len(entries) {
		return Entry{}, false
	}
	return entries[i], true
}

// inline reports whether this entry's value array is stored inline in
// ValueOffset itself (total byte size <= 4); otherwise ValueOffset is the
// absolute file offset at which the array begins.
func (e Entry) inline() bool {
	size := typeSize(e.Type)
	return size > 0 && size*int(e.Count) <= 4
}

// ReadShorts reads e's value as a SHORT (uint16) array of length e.Count.
func ReadShorts(data []byte, e Entry) ([]uint16, error) {
	out := make([]uint16, e.Count)
	if e.inline() {
		// Inline SHORT values are packed low-to-high within the 4-byte
		// ValueOffset field itself.
		v := e.ValueOffset
		for i := range out {
			out[i] = uint16(v & 0xFFFF)
			v >>= 16
		}
		return out, nil
	}
	off := e.ValueOffset
	for i := range out {
		s, err := readU16(data, off+uint32(i)*2)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
