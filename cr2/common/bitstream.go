package common

import (
	"github.com/canonraw/cr2lossless/cr2err"
)

// BitStream is a forward-only, MSB-first bit reader over a byte-stuffed
// JPEG entropy segment. The byte pair 0xFF 0x00 decodes as a literal 0xFF
// data byte; any other 0xFF xx is a marker and is never consumed as data.
//
// Internally this keeps a variable-width accumulator (acc, nBits) rather
// than a fixed 32-bit shift register: bytes are appended to the low end as
// they are pulled from the source and the most-significant nBits of acc are
// always the next unread bits, which gives the same external contract
// (read_bits returns the next n bits MSB-first) without a hand-rolled
// refill threshold.
type BitStream struct {
	data []byte
	pos  int

	acc   uint64
	nBits uint

	marker    uint16
	hasMarker bool
}

// NewBitStream wraps data — the byte range immediately following SOS
// through the terminal EOI marker; ExpectEOI requires that marker to be the
// last two bytes of data.
func NewBitStream(data []byte) *BitStream {
	return &BitStream{data: data}
}

// pullByte pulls one source byte into the accumulator, unstuffing 0xFF 0x00
// pairs. It returns false (with no error) once a real marker has been found
// or the source is exhausted; callers distinguish the two via the hasMarker
// field.
func (b *BitStream) pullByte() (bool, error) {
	if b.hasMarker {
		return false, nil
	}
	if b.pos >= len(b.data) {
		return false, nil
	}

	c := b.data[b.pos]
	if c != 0xFF {
		b.pos++
		b.acc = (b.acc << 8) | uint64(c)
		b.nBits += 8
		return true, nil
	}

	// c == 0xFF: peek the following byte to distinguish stuffing from a
	// marker.
	if b.pos+1 >= len(b.data) {
		return false, cr2err.New(cr2err.UnexpectedEndOfScan, "truncated marker at end of entropy stream").WithOffset(int64(b.pos))
	}
	next := b.data[b.pos+1]
	if next == 0x00 {
		b.pos += 2
		b.acc = (b.acc << 8) | 0xFF
		b.nBits += 8
		return true, nil
	}

	b.marker = 0xFF00 | uint16(next)
	b.hasMarker = true
	return false, nil
}

// ensure makes at least n bits available in the accumulator, pulling
// further source bytes as needed. It returns an error only when the source
// is exhausted (or a marker is hit) before n bits could be assembled.
func (b *BitStream) ensure(n int) error {
	for int(b.nBits) < n {
		ok, err := b.pullByte()
		if err != nil {
			return err
		}
		if !ok {
			if b.hasMarker {
				return cr2err.New(cr2err.InvalidMarker, "marker encountered mid-scan").WithOffset(int64(b.pos))
			}
			return cr2err.New(cr2err.UnexpectedEndOfScan, "entropy stream exhausted").WithOffset(int64(b.pos))
		}
	}
	return nil
}

// PeekBits returns the next n bits (1 <= n <= 16) without consuming them.
func (b *BitStream) PeekBits(n int) (uint16, error) {
	if err := b.ensure(n); err != nil {
		return 0, err
	}
	shift := b.nBits - uint(n)
	mask := uint64(1)<<uint(n) - 1
	return uint16((b.acc >> shift) & mask), nil
}

// Consume discards n already-peeked bits from the accumulator.
func (b *BitStream) Consume(n int) {
	b.nBits -= uint(n)
	b.acc &= uint64(1)<<b.nBits - 1
}

// ReadBits returns the next n bits (1 <= n <= 16) MSB-first and consumes
// them.
func (b *BitStream) ReadBits(n int) (uint16, error) {
	v, err := b.PeekBits(n)
	if err != nil {
		return 0, err
	}
	b.Consume(n)
	return v, nil
}

// PendingMarker reports the marker that stopped byte pulling, if any. It is
// populated lazily: callers that want to observe it at a specific point
// (e.g. immediately after the last expected sample) should call
// ExpectEOI instead, which actively drains toward a marker.
func (b *BitStream) PendingMarker() (uint16, bool) {
	return b.marker, b.hasMarker
}

// ExpectEOI is called once the reconstructor believes it has consumed every
// expected sample. Every bit still held in the accumulator (JPEG one-padding,
// or bytes already pulled ahead) is discarded without validation, and any
// further data bytes before the next marker are skipped the same way rather
// than rejected. That marker must be the terminal EOI, with no trailing bytes
// after it.
func (b *BitStream) ExpectEOI() error {
	// Drop any padding bits left in the accumulator (JPEG pads scan data
	// with ones up to the next byte boundary).
	b.acc = 0
	b.nBits = 0

	if !b.hasMarker {
		// No marker found yet: keep pulling raw bytes (not through the
		// bit accumulator) until one appears or the source runs out.
		for !b.hasMarker && b.pos < len(b.data) {
			if _, err := b.pullByte(); err != nil {
				return err
			}
			b.acc, b.nBits = 0, 0
		}
	}

	if !b.hasMarker {
		return cr2err.New(cr2err.UnexpectedEndOfScan, "entropy stream ended without a terminal EOI marker").WithOffset(int64(b.pos))
	}
	if b.marker != MarkerEOI {
		return cr2err.New(cr2err.InvalidMarker, "expected terminal EOI marker").WithOffset(int64(b.pos))
	}

	// Consume the marker itself (0xFF + the marker's low byte) and demand
	// no trailing bytes remain.
	b.pos += 2
	if b.pos != len(b.data) {
		return cr2err.New(cr2err.TrailingGarbage, "bytes follow the terminal EOI marker").WithOffset(int64(b.pos))
	}
	return nil
}

// Offset returns the current source byte cursor, for error context.
func (b *BitStream) Offset() int64 { return int64(b.pos) }
