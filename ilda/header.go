package ilda

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// HeaderSize is the encoded size of a section header.
const HeaderSize = 32

// Signature is the ASCII "ILDA" that opens every header.
var Signature = [4]byte{'I', 'L', 'D', 'A'}

// Header describes one section. Format is kept as the raw code so that a
// header with an unrecognised code still decodes; the section reader is the
// one that rejects it.
type Header struct {
	Reserved    [3]byte // zero in conforming files, preserved verbatim
	Format      Format
	Name        Name   // frame or palette name
	Company     Name   // company that created the frame
	Records     uint16 // number of records following; 0 marks the end of stream
	Number      uint16 // frame or palette number
	TotalFrames uint16 // frames in the sequence, 0 for palettes
	Projector   uint8
	Reserved2   uint8
}

// IsEnd reports whether h is the end-of-stream marker.
func (h Header) IsEnd() bool { return h.Records == 0 }

// PayloadSize is the number of record bytes following h, or -1 when the
// format code is not recognised.
func (h Header) PayloadSize() int {
	n := h.Format.RecordSize()
	if n == 0 {
		return -1
	}
	return n * int(h.Records)
}

// DecodeHeader decodes the first HeaderSize bytes of b. The signature is
// checked before any other field is looked at.
func DecodeHeader(b []byte) (Header, error) {
	var h Header
	if len(b) < HeaderSize {
		return h, fmt.Errorf("%w: header needs %d bytes, have %d", ErrTruncated, HeaderSize, len(b))
	}
	if [4]byte(b[0:4]) != Signature {
		return h, ErrInvalidSignature
	}
	copy(h.Reserved[:], b[4:7])
	h.Format = Format(b[7])
	copy(h.Name[:], b[8:16])
	copy(h.Company[:], b[16:24])
	h.Records = binary.BigEndian.Uint16(b[24:26])
	h.Number = binary.BigEndian.Uint16(b[26:28])
	h.TotalFrames = binary.BigEndian.Uint16(b[28:30])
	h.Projector = b[30]
	h.Reserved2 = b[31]
	return h, nil
}

// EncodeHeader returns the 32-byte encoding of h.
func EncodeHeader(h Header) [HeaderSize]byte {
	var b [HeaderSize]byte
	h.put(b[:])
	return b
}

// AppendHeader appends the encoding of h to dst.
func AppendHeader(dst []byte, h Header) []byte {
	b := EncodeHeader(h)
	return append(dst, b[:]...)
}

func (h Header) put(b []byte) {
	copy(b[0:4], Signature[:])
	copy(b[4:7], h.Reserved[:])
	b[7] = byte(h.Format)
	copy(b[8:16], h.Name[:])
	copy(b[16:24], h.Company[:])
	binary.BigEndian.PutUint16(b[24:26], h.Records)
	binary.BigEndian.PutUint16(b[26:28], h.Number)
	binary.BigEndian.PutUint16(b[28:30], h.TotalFrames)
	b[30] = h.Projector
	b[31] = h.Reserved2
}

// Name is a fixed-width 8-byte name field. Producers pad with NUL or
// spaces; anything after the first NUL is ignored by readers. The raw bytes
// are kept as-is so that encoding round-trips.
type Name [8]byte

// NewName encodes s as ISO-8859-1 and pads it with NUL bytes.
func NewName(s string) (Name, error) {
	var n Name
	enc, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return n, fmt.Errorf("ilda: encode name %q: %w", s, err)
	}
	if len(enc) > len(n) {
		return n, fmt.Errorf("%w: %q", ErrNameTooLong, s)
	}
	copy(n[:], enc)
	return n, nil
}

// MustName is NewName for literals known to fit.
func MustName(s string) Name {
	n, err := NewName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// Text returns the name up to the first NUL, decoded as ISO-8859-1, with
// trailing spaces removed.
func (n Name) Text() string {
	raw := n[:]
	for i, c := range raw {
		if c == 0 {
			raw = raw[:i]
			break
		}
	}
	dec, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		// every byte is valid ISO-8859-1
		dec = raw
	}
	return strings.TrimRight(string(dec), " ")
}

func (n Name) String() string { return n.Text() }
