package ilda

import (
	"fmt"
	"io"
)

// SectionWriter serialises sections to a byte sink. It never appends an
// end-of-stream header on its own; call WriteEnd when the stream is done.
type SectionWriter struct {
	w        io.Writer
	buf      []byte
	sections int
}

// NewSectionWriter returns a writer over w.
func NewSectionWriter(w io.Writer) *SectionWriter {
	return &SectionWriter{w: w}
}

// Sections returns the number of sections written so far, end markers
// included.
func (sw *SectionWriter) Sections() int { return sw.sections }

// WriteSection writes h followed by records. h.Records must equal
// len(records) and every record must have format h.Format.
func (sw *SectionWriter) WriteSection(h Header, records []Record) error {
	return WriteRecords(sw, h, records)
}

// WriteRecords is WriteSection for a slice of one concrete record type.
func WriteRecords[T Record](sw *SectionWriter, h Header, records []T) error {
	if len(records) != int(h.Records) {
		return fmt.Errorf("%w: header declares %d, have %d", ErrCountMismatch, h.Records, len(records))
	}
	if len(records) > 0 {
		if !h.Format.Valid() {
			return &UnknownFormatError{Code: uint8(h.Format)}
		}
		first := records[0].Format()
		for i, r := range records {
			if f := r.Format(); f != first {
				return fmt.Errorf("%w: record %d is %v, record 0 is %v", ErrMixedFormats, i, f, first)
			}
		}
		if first != h.Format {
			return fmt.Errorf("%w: header %v, records %v", ErrFormatMismatch, h.Format, first)
		}
	}

	sw.buf = AppendHeader(sw.buf[:0], h)
	for _, r := range records {
		sw.buf = r.appendTo(sw.buf)
	}
	if _, err := sw.w.Write(sw.buf); err != nil {
		return &TransportError{Err: err}
	}
	sw.sections++
	return nil
}

// WriteEnd writes a zero-count header with format 0, the conventional end
// of stream marker.
func (sw *SectionWriter) WriteEnd() error {
	return sw.WriteSection(Header{Format: Coords3dIndexedColor}, nil)
}
