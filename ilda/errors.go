package ilda

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSignature reports a header that does not start with "ILDA".
	ErrInvalidSignature = errors.New("ilda: invalid header signature")
	// ErrTruncated reports a source that ended inside a header or record.
	ErrTruncated = errors.New("ilda: truncated data")
	// ErrCountMismatch reports a section whose records disagree with the
	// count in its header.
	ErrCountMismatch = errors.New("ilda: record count does not match header")
	// ErrMixedFormats reports an attempt to write records of different
	// formats into one section.
	ErrMixedFormats = errors.New("ilda: records of mixed formats in one section")
	// ErrFormatMismatch reports records whose format differs from the
	// format of the section header.
	ErrFormatMismatch = errors.New("ilda: record format does not match header format")
	// ErrPaletteIndex reports a colour index past the end of the palette.
	ErrPaletteIndex = errors.New("ilda: palette index out of range")
	// ErrNameTooLong reports a frame or company name over 8 bytes.
	ErrNameTooLong = errors.New("ilda: name longer than 8 bytes")
	// ErrStaleReader is returned by a subsection reader used after the
	// section reader has moved on.
	ErrStaleReader = errors.New("ilda: stale subsection reader")
)

// UnknownFormatError reports a well-formed header whose format code is not
// one of 0, 1, 2, 4 or 5. It is scoped to one section.
type UnknownFormatError struct {
	Code uint8
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("ilda: unknown format code %d", e.Code)
}

// TransportError wraps a failure of the underlying byte source or sink.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "ilda: transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }
