package ilda

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

type readerState uint8

const (
	stateIdle readerState = iota
	stateInSection
	stateDone
)

// Option configures a SectionReader, Decode or Encode.
type Option func(*options)

type options struct {
	log     zerolog.Logger
	palette Palette
	lenient bool
}

func newOptions(opts []Option) options {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger makes the reader log section transitions at debug level and
// terminal errors at warn level.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithPalette sets the palette assumed for indexed frames that are not
// preceded by a palette section. Decode resolves their colours against it
// and Encode writes it back before such a frame when an earlier frame
// switched to another palette. The default palette is used otherwise.
func WithPalette(p Palette) Option {
	return func(o *options) { o.palette = p }
}

// WithLenientPalette makes Decode keep indexed points whose index is past
// the end of the palette in effect. Such a point keeps its ColorIndex, its
// Color stays zero and a warning is logged once per frame.
func WithLenientPalette() Option {
	return func(o *options) { o.lenient = true }
}

func (o options) fallbackPalette() Palette {
	if o.palette != nil {
		return o.palette
	}
	return DefaultPalette()
}

// SectionReader reads sections from a forward-only byte source. It never
// reads more than one header or one record per request and keeps no
// buffer beyond that.
//
// After a clean end, a zero-count header, a bad signature, a truncated
// structure or a source failure the reader is done and every later call
// returns the same error (io.EOF for the two clean cases). An unknown format
// code only fails that section: the header has been consumed, its records
// have not, and the caller decides how to resynchronise.
type SectionReader struct {
	r         io.Reader
	log       zerolog.Logger
	state     readerState
	err       error
	seq       uint64
	format    Format
	remaining uint16
	total     uint16
	hdr       [HeaderSize]byte
	rec       [maxRecordSize]byte
}

// NewSectionReader returns a reader over r.
func NewSectionReader(r io.Reader, opts ...Option) *SectionReader {
	o := newOptions(opts)
	return &SectionReader{r: r, log: o.log}
}

// Section is one decoded header together with the reader for its records.
// Records is one of the *Point3dIndexedReader, *Point2dIndexedReader,
// *PaletteReader, *Point3dTrueReader or *Point2dTrueReader types.
type Section struct {
	Header  Header
	Records RecordReader
}

// RecordReader is the format-independent view of a subsection reader.
type RecordReader interface {
	Format() Format
	// Remaining is the number of records not yet read.
	Remaining() int
	// NextRecord returns the next record or io.EOF once all have been read.
	NextRecord() (Record, error)
	// Skip discards the remaining records.
	Skip() error
}

// Next advances to the next section and returns io.EOF when there are no
// more. Records of the current section that were not read are skipped.
func (sr *SectionReader) Next() (*Section, error) {
	switch sr.state {
	case stateDone:
		return nil, sr.err
	case stateInSection:
		if err := sr.skipRemaining(); err != nil {
			return nil, err
		}
	}

	n, err := io.ReadFull(sr.r, sr.hdr[:])
	if err != nil {
		switch {
		case err == io.EOF:
			return nil, sr.finish(io.EOF)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return nil, sr.finish(fmt.Errorf("%w: header has %d of %d bytes", ErrTruncated, n, HeaderSize))
		default:
			return nil, sr.finish(&TransportError{Err: err})
		}
	}
	h, err := DecodeHeader(sr.hdr[:])
	if err != nil {
		return nil, sr.finish(err)
	}
	if h.IsEnd() {
		sr.log.Debug().Str("name", h.Name.Text()).Msg("end of stream")
		return nil, sr.finish(io.EOF)
	}
	f, err := FormatFromCode(uint8(h.Format))
	if err != nil {
		sr.log.Warn().Uint8("code", uint8(h.Format)).Uint16("records", h.Records).Msg("unknown format")
		return nil, err
	}

	sr.seq++
	sr.state = stateInSection
	sr.format = f
	sr.remaining = h.Records
	sr.total = h.Records
	sr.log.Debug().
		Stringer("format", f).
		Uint16("records", h.Records).
		Str("name", h.Name.Text()).
		Uint16("number", h.Number).
		Msg("section")
	return &Section{Header: h, Records: sr.subsection(f)}, nil
}

// Discard drops n raw bytes from the source. It lets a caller skip the
// records of a section with an unknown format, or scan for the next
// signature, without going around the reader.
func (sr *SectionReader) Discard(n int64) error {
	switch sr.state {
	case stateDone:
		return sr.err
	case stateInSection:
		return fmt.Errorf("ilda: discard inside a %v section", sr.format)
	}
	return sr.discard(n)
}

// Done reports whether the reader has reached its terminal state.
func (sr *SectionReader) Done() bool { return sr.state == stateDone }

// Err returns the error that made the reader done, or nil.
func (sr *SectionReader) Err() error {
	if sr.err == io.EOF {
		return nil
	}
	return sr.err
}

func (sr *SectionReader) subsection(f Format) RecordReader {
	switch f {
	case Coords3dIndexedColor:
		return &Point3dIndexedReader{sr: sr, seq: sr.seq, decode: decodePoint3dIndexed}
	case Coords2dIndexedColor:
		return &Point2dIndexedReader{sr: sr, seq: sr.seq, decode: decodePoint2dIndexed}
	case ColorPalette:
		return &PaletteReader{sr: sr, seq: sr.seq, decode: decodePaletteEntry}
	case Coords3dTrueColor:
		return &Point3dTrueReader{sr: sr, seq: sr.seq, decode: decodePoint3dTrue}
	default:
		return &Point2dTrueReader{sr: sr, seq: sr.seq, decode: decodePoint2dTrue}
	}
}

func (sr *SectionReader) skipRemaining() error {
	n := int64(sr.remaining) * int64(sr.format.RecordSize())
	sr.remaining = 0
	sr.state = stateIdle
	return sr.discard(n)
}

func (sr *SectionReader) discard(n int64) error {
	if n <= 0 {
		return nil
	}
	got, err := io.CopyN(io.Discard, sr.r, n)
	if err != nil {
		if err == io.EOF {
			return sr.finish(fmt.Errorf("%w: skipped %d of %d bytes", ErrTruncated, got, n))
		}
		return sr.finish(&TransportError{Err: err})
	}
	return nil
}

// readRecord fills rec with one record of the current format.
func (sr *SectionReader) readRecord() ([]byte, error) {
	size := sr.format.RecordSize()
	b := sr.rec[:size]
	index := sr.total - sr.remaining
	n, err := io.ReadFull(sr.r, b)
	if err != nil {
		if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, sr.finish(fmt.Errorf("%w: %v record %d of %d has %d of %d bytes",
				ErrTruncated, sr.format, index, sr.total, n, size))
		}
		return nil, sr.finish(&TransportError{Err: err})
	}
	sr.remaining--
	if sr.remaining == 0 {
		sr.state = stateIdle
	}
	return b, nil
}

func (sr *SectionReader) finish(err error) error {
	sr.state = stateDone
	sr.remaining = 0
	sr.err = err
	if err != io.EOF {
		sr.log.Warn().Err(err).Msg("section reader stopped")
	}
	return err
}

// SubsectionReader reads the records of one section. It is only valid
// until the SectionReader moves on to another section.
type SubsectionReader[T Record] struct {
	sr     *SectionReader
	seq    uint64
	decode func([]byte) T
}

type (
	Point3dIndexedReader = SubsectionReader[Point3dIndexed]
	Point2dIndexedReader = SubsectionReader[Point2dIndexed]
	PaletteReader        = SubsectionReader[PaletteEntry]
	Point3dTrueReader    = SubsectionReader[Point3dTrue]
	Point2dTrueReader    = SubsectionReader[Point2dTrue]
)

func (s *SubsectionReader[T]) stale() bool { return s.seq != s.sr.seq }

func (s *SubsectionReader[T]) Format() Format {
	var zero T
	return zero.Format()
}

func (s *SubsectionReader[T]) Remaining() int {
	if s.stale() {
		return 0
	}
	return int(s.sr.remaining)
}

// Next returns the next record, or io.EOF when the section has no more.
// A last-point flag does not end the section early.
func (s *SubsectionReader[T]) Next() (T, error) {
	var zero T
	if s.stale() {
		return zero, ErrStaleReader
	}
	if s.sr.remaining == 0 {
		if s.sr.state == stateDone {
			return zero, s.sr.err
		}
		return zero, io.EOF
	}
	b, err := s.sr.readRecord()
	if err != nil {
		return zero, err
	}
	return s.decode(b), nil
}

func (s *SubsectionReader[T]) NextRecord() (Record, error) {
	r, err := s.Next()
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ReadAll reads every remaining record.
func (s *SubsectionReader[T]) ReadAll() ([]T, error) {
	out := make([]T, 0, s.Remaining())
	for {
		r, err := s.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
}

func (s *SubsectionReader[T]) Skip() error {
	if s.stale() {
		return ErrStaleReader
	}
	if s.sr.state != stateInSection {
		return nil
	}
	return s.sr.skipRemaining()
}
