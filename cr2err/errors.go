// Package cr2err defines the error taxonomy shared by every stage of the
// CR2 decode pipeline: container ingest, entropy decode, and sink output.
package cr2err

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies the category of a fatal decode failure.
type Kind int

const (
	// MalformedContainer covers TIFF/CR2/JPEG marker parsing failures or a
	// required tag that is missing entirely.
	MalformedContainer Kind = iota
	// InvalidHuffmanTable covers a DHT whose bit-length counts overrun the
	// supplied value list, or that defines zero codes.
	InvalidHuffmanTable
	// NoMatchingCode covers a Huffman decode that finds no code of any
	// length up to MaxLen matching the peeked bits.
	NoMatchingCode
	// UnexpectedEndOfScan covers an entropy stream exhausted before every
	// expected sample has been decoded.
	UnexpectedEndOfScan
	// InvalidMarker covers a mid-scan marker other than the 0xFF00 stuffing
	// escape or the terminal EOI.
	InvalidMarker
	// TrailingGarbage covers bytes following the terminal EOI.
	TrailingGarbage
	// IoError covers an underlying read/write failure.
	IoError
)

func (k Kind) String() string {
	switch k {
	case MalformedContainer:
		return "MalformedContainer"
	case InvalidHuffmanTable:
		return "InvalidHuffmanTable"
	case NoMatchingCode:
		return "NoMatchingCode"
	case UnexpectedEndOfScan:
		return "UnexpectedEndOfScan"
	case InvalidMarker:
		return "InvalidMarker"
	case TrailingGarbage:
		return "TrailingGarbage"
	case IoError:
		return "IoError"
	default:
		return "Unknown"
	}
}

// Error is the structured, diagnosable fatal error every core stage returns.
// It carries enough context to localize the failure without retrying or
// attempting partial recovery, matching the no-retry, no-partial-output
// contract of the decode pipeline.
type Error struct {
	Kind Kind
	// Msg is a short human-readable description of what failed.
	Msg string
	// Offset is the byte offset into the entropy stream or container at
	// which the failure was detected, or -1 if not applicable.
	Offset int64
	// SampleIndex is the 0-based sample count decoded so far, or -1 if not
	// applicable.
	SampleIndex int64
	cause error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	if e.Offset >= 0 {
		s += fmt.Sprintf(" (offset %d)", e.Offset)
	}
	if e.SampleIndex >= 0 {
		s += fmt.Sprintf(" (sample %d)", e.SampleIndex)
	}
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	return s
}

// Unwrap exposes the wrapped cause so errors.Is/errors.As keep working.
func (e *Error) Unwrap() error { return e.cause }

// New builds an Error with no known byte offset or sample index.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Offset: -1, SampleIndex: -1}
}

// Wrap builds an Error wrapping cause via github.com/pkg/errors; Unwrap
// exposes it, so errors.Is/errors.As reach the underlying I/O or parse
// failure. Error has no Cause method, so errors.Cause stops at the *Error.
func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Offset: -1, SampleIndex: -1, cause: errors.Wrap(cause, msg)}
}

// WithOffset returns a copy of e annotated with a byte offset.
func (e *Error) WithOffset(offset int64) *Error {
	c := *e
	c.Offset = offset
	return &c
}

// WithSample returns a copy of e annotated with a sample index.
func (e *Error) WithSample(sampleIndex int64) *Error {
	c := *e
	c.SampleIndex = sampleIndex
	return &c
}

// Is reports whether err (or any error it wraps) is a *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
