package ilda

import (
	"encoding/binary"
	"fmt"
)

// Status is the status byte of a point record. Bit 7 flags the last point
// of an image and bit 6 flags a blanked (laser off) point. The other bits
// are reserved and are carried through untouched.
type Status uint8

const (
	// StatusLastPoint marks the final point of an image.
	StatusLastPoint Status = 1 << 7
	// StatusBlanked marks a point drawn with the laser off.
	StatusBlanked Status = 1 << 6
)

// IsLastPoint reports whether the last-point bit is set.
func (s Status) IsLastPoint() bool { return s&StatusLastPoint != 0 }

// IsBlanked reports whether the blanking bit is set.
func (s Status) IsBlanked() bool { return s&StatusBlanked != 0 }

// WithLastPoint returns s with the last-point bit set to v.
func (s Status) WithLastPoint(v bool) Status { return s.with(StatusLastPoint, v) }

// WithBlanked returns s with the blanking bit set to v.
func (s Status) WithBlanked(v bool) Status { return s.with(StatusBlanked, v) }

func (s Status) with(bit Status, v bool) Status {
	if v {
		return s | bit
	}
	return s &^ bit
}

// Color is an 8-bit RGB triple.
type Color struct {
	Red   uint8
	Green uint8
	Blue  uint8
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.Red, c.Green, c.Blue)
}

// Record is one of the five fixed-size record types.
type Record interface {
	Format() Format
	appendTo(dst []byte) []byte
}

// AppendRecord appends the encoding of r to dst.
func AppendRecord(dst []byte, r Record) []byte { return r.appendTo(dst) }

// EncodeRecord returns the encoding of r.
func EncodeRecord(r Record) []byte {
	return r.appendTo(make([]byte, 0, r.Format().RecordSize()))
}

func checkLen(b []byte, f Format) error {
	if len(b) < f.RecordSize() {
		return fmt.Errorf("%w: %v record needs %d bytes, have %d", ErrTruncated, f, f.RecordSize(), len(b))
	}
	return nil
}

func i16(b []byte) int16 { return int16(binary.BigEndian.Uint16(b)) }

func appendI16(dst []byte, v int16) []byte {
	return binary.BigEndian.AppendUint16(dst, uint16(v))
}

// Point3dIndexed is a 3D point whose colour is a palette index (format 0).
type Point3dIndexed struct {
	X, Y, Z    int16 // left/right, down/up, far/near
	Status     Status
	ColorIndex uint8
}

func (Point3dIndexed) Format() Format { return Coords3dIndexedColor }

func (p Point3dIndexed) appendTo(dst []byte) []byte {
	dst = appendI16(dst, p.X)
	dst = appendI16(dst, p.Y)
	dst = appendI16(dst, p.Z)
	return append(dst, byte(p.Status), p.ColorIndex)
}

func decodePoint3dIndexed(b []byte) Point3dIndexed {
	return Point3dIndexed{X: i16(b[0:]), Y: i16(b[2:]), Z: i16(b[4:]), Status: Status(b[6]), ColorIndex: b[7]}
}

// DecodePoint3dIndexed decodes a format 0 record.
func DecodePoint3dIndexed(b []byte) (Point3dIndexed, error) {
	if err := checkLen(b, Coords3dIndexedColor); err != nil {
		return Point3dIndexed{}, err
	}
	return decodePoint3dIndexed(b), nil
}

// Point2dIndexed is a 2D point whose colour is a palette index (format 1).
type Point2dIndexed struct {
	X, Y       int16
	Status     Status
	ColorIndex uint8
}

func (Point2dIndexed) Format() Format { return Coords2dIndexedColor }

func (p Point2dIndexed) appendTo(dst []byte) []byte {
	dst = appendI16(dst, p.X)
	dst = appendI16(dst, p.Y)
	return append(dst, byte(p.Status), p.ColorIndex)
}

func decodePoint2dIndexed(b []byte) Point2dIndexed {
	return Point2dIndexed{X: i16(b[0:]), Y: i16(b[2:]), Status: Status(b[4]), ColorIndex: b[5]}
}

// DecodePoint2dIndexed decodes a format 1 record.
func DecodePoint2dIndexed(b []byte) (Point2dIndexed, error) {
	if err := checkLen(b, Coords2dIndexedColor); err != nil {
		return Point2dIndexed{}, err
	}
	return decodePoint2dIndexed(b), nil
}

// PaletteEntry is one colour of a palette section (format 2).
type PaletteEntry struct {
	Color Color
}

func (PaletteEntry) Format() Format { return ColorPalette }

func (p PaletteEntry) appendTo(dst []byte) []byte {
	return append(dst, p.Color.Red, p.Color.Green, p.Color.Blue)
}

func decodePaletteEntry(b []byte) PaletteEntry {
	return PaletteEntry{Color: Color{Red: b[0], Green: b[1], Blue: b[2]}}
}

// DecodePaletteEntry decodes a format 2 record.
func DecodePaletteEntry(b []byte) (PaletteEntry, error) {
	if err := checkLen(b, ColorPalette); err != nil {
		return PaletteEntry{}, err
	}
	return decodePaletteEntry(b), nil
}

// Point3dTrue is a 3D point with its own colour (format 4). On the wire the
// colour is stored blue, green, red.
type Point3dTrue struct {
	X, Y, Z int16
	Status  Status
	Color   Color
}

func (Point3dTrue) Format() Format { return Coords3dTrueColor }

func (p Point3dTrue) appendTo(dst []byte) []byte {
	dst = appendI16(dst, p.X)
	dst = appendI16(dst, p.Y)
	dst = appendI16(dst, p.Z)
	return append(dst, byte(p.Status), p.Color.Blue, p.Color.Green, p.Color.Red)
}

func decodePoint3dTrue(b []byte) Point3dTrue {
	return Point3dTrue{
		X: i16(b[0:]), Y: i16(b[2:]), Z: i16(b[4:]),
		Status: Status(b[6]),
		Color:  Color{Blue: b[7], Green: b[8], Red: b[9]},
	}
}

// DecodePoint3dTrue decodes a format 4 record.
func DecodePoint3dTrue(b []byte) (Point3dTrue, error) {
	if err := checkLen(b, Coords3dTrueColor); err != nil {
		return Point3dTrue{}, err
	}
	return decodePoint3dTrue(b), nil
}

// Point2dTrue is a 2D point with its own colour (format 5).
type Point2dTrue struct {
	X, Y   int16
	Status Status
	Color  Color
}

func (Point2dTrue) Format() Format { return Coords2dTrueColor }

func (p Point2dTrue) appendTo(dst []byte) []byte {
	dst = appendI16(dst, p.X)
	dst = appendI16(dst, p.Y)
	return append(dst, byte(p.Status), p.Color.Blue, p.Color.Green, p.Color.Red)
}

func decodePoint2dTrue(b []byte) Point2dTrue {
	return Point2dTrue{
		X: i16(b[0:]), Y: i16(b[2:]),
		Status: Status(b[4]),
		Color:  Color{Blue: b[5], Green: b[6], Red: b[7]},
	}
}

// DecodePoint2dTrue decodes a format 5 record.
func DecodePoint2dTrue(b []byte) (Point2dTrue, error) {
	if err := checkLen(b, Coords2dTrueColor); err != nil {
		return Point2dTrue{}, err
	}
	return decodePoint2dTrue(b), nil
}

// DecodeRecord decodes one record of format f from b.
func DecodeRecord(f Format, b []byte) (Record, error) {
	if !f.Valid() {
		return nil, &UnknownFormatError{Code: uint8(f)}
	}
	if err := checkLen(b, f); err != nil {
		return nil, err
	}
	switch f {
	case Coords3dIndexedColor:
		return decodePoint3dIndexed(b), nil
	case Coords2dIndexedColor:
		return decodePoint2dIndexed(b), nil
	case ColorPalette:
		return decodePaletteEntry(b), nil
	case Coords3dTrueColor:
		return decodePoint3dTrue(b), nil
	default:
		return decodePoint2dTrue(b), nil
	}
}
