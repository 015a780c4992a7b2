// Package ilda reads and writes the ILDA Image Data Transfer Format (IDTF),
// Revision 011 (2014-11-16).
//
// A stream is a sequence of sections. Each section is a fixed 32-byte
// header followed by a number of fixed-size records whose layout is
// selected by the header's format code. A header with a record count of
// zero marks the end of the stream.
//
// All multi-byte integers are big-endian and coordinates are signed.
package ilda

import "fmt"

// Format is the format code of a section.
//
// Formats 0, 1, 4 and 5 carry points, format 2 carries a colour palette.
// Format 3 was proposed but never approved and is not recognised.
type Format uint8

const (
	Coords3dIndexedColor Format = 0
	Coords2dIndexedColor Format = 1
	ColorPalette         Format = 2
	Coords3dTrueColor    Format = 4
	Coords2dTrueColor    Format = 5
)

// Encoded sizes of each record layout.
const (
	Coords3dIndexedColorSize = 8
	Coords2dIndexedColorSize = 6
	ColorPaletteSize         = 3
	Coords3dTrueColorSize    = 10
	Coords2dTrueColorSize    = 8

	maxRecordSize = Coords3dTrueColorSize
)

// FormatFromCode maps a raw format code to a known Format.
func FormatFromCode(code uint8) (Format, error) {
	f := Format(code)
	if !f.Valid() {
		return 0, &UnknownFormatError{Code: code}
	}
	return f, nil
}

// Valid reports whether f is one of the five recognised formats.
func (f Format) Valid() bool {
	return f.RecordSize() > 0
}

// RecordSize returns the encoded size of one record of format f, or 0 for
// an unrecognised code.
func (f Format) RecordSize() int {
	switch f {
	case Coords3dIndexedColor:
		return Coords3dIndexedColorSize
	case Coords2dIndexedColor:
		return Coords2dIndexedColorSize
	case ColorPalette:
		return ColorPaletteSize
	case Coords3dTrueColor:
		return Coords3dTrueColorSize
	case Coords2dTrueColor:
		return Coords2dTrueColorSize
	}
	return 0
}

// IsPoints reports whether f carries point records.
func (f Format) IsPoints() bool { return f.Valid() && f != ColorPalette }

// Is3D reports whether f carries a z coordinate.
func (f Format) Is3D() bool { return f == Coords3dIndexedColor || f == Coords3dTrueColor }

// IsIndexed reports whether points of format f reference a palette.
func (f Format) IsIndexed() bool { return f == Coords3dIndexedColor || f == Coords2dIndexedColor }

func (f Format) String() string {
	switch f {
	case Coords3dIndexedColor:
		return "Coords3dIndexedColor"
	case Coords2dIndexedColor:
		return "Coords2dIndexedColor"
	case ColorPalette:
		return "ColorPalette"
	case Coords3dTrueColor:
		return "Coords3dTrueColor"
	case Coords2dTrueColor:
		return "Coords2dTrueColor"
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// PointFormat returns the point format with the given dimensionality and
// colour model.
func PointFormat(is3D, indexed bool) Format {
	switch {
	case is3D && indexed:
		return Coords3dIndexedColor
	case indexed:
		return Coords2dIndexedColor
	case is3D:
		return Coords3dTrueColor
	default:
		return Coords2dTrueColor
	}
}
