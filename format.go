package clutmap

import (
	"fmt"
	"strings"
)

// Format is the pixel layout of a frame.
type Format int

const (
	FormatBGRA32 Format = iota // packed B,G,R,A
	FormatBGR24                // packed B,G,R
	FormatYUY2                 // packed 4:2:2 Y1,U,Y2,V
	FormatYV12                 // planar 4:2:0
	FormatYV16                 // planar 4:2:2
	FormatYV411                // planar 4:1:1
	FormatYV24                 // planar 4:4:4
	FormatY8                   // planar luma only
)

// Family selects the component order of a Color.
type Family int

const (
	FamilyRGB Family = iota // {R, G, B}
	FamilyYUV               // {Y, U, V}
)

func (f Family) String() string {
	if f == FamilyYUV {
		return "yuv"
	}
	return "rgb"
}

// Geometry describes a Format as data so the adapter and the mosaic
// filter never branch on the format per pixel.
type Geometry struct {
	Family Family
	Planar bool
	// Bytes per pixel of the packed buffer, or per luma sample when planar.
	BytesPerPixel int
	// Luma samples covered by one chroma sample (macropixel size).
	SubW, SubH int
	// False for luma-only formats; chroma planes are then absent.
	Chroma bool
}

var geometries = [...]Geometry{
	FormatBGRA32: {Family: FamilyRGB, BytesPerPixel: 4, SubW: 1, SubH: 1},
	FormatBGR24:  {Family: FamilyRGB, BytesPerPixel: 3, SubW: 1, SubH: 1},
	FormatYUY2:   {Family: FamilyYUV, BytesPerPixel: 2, SubW: 2, SubH: 1, Chroma: true},
	FormatYV12:   {Family: FamilyYUV, Planar: true, BytesPerPixel: 1, SubW: 2, SubH: 2, Chroma: true},
	FormatYV16:   {Family: FamilyYUV, Planar: true, BytesPerPixel: 1, SubW: 2, SubH: 1, Chroma: true},
	FormatYV411:  {Family: FamilyYUV, Planar: true, BytesPerPixel: 1, SubW: 4, SubH: 1, Chroma: true},
	FormatYV24:   {Family: FamilyYUV, Planar: true, BytesPerPixel: 1, SubW: 1, SubH: 1, Chroma: true},
	FormatY8:     {Family: FamilyYUV, Planar: true, BytesPerPixel: 1, SubW: 1, SubH: 1},
}

var formatNames = [...]string{
	FormatBGRA32: "BGRA32",
	FormatBGR24:  "BGR24",
	FormatYUY2:   "YUY2",
	FormatYV12:   "YV12",
	FormatYV16:   "YV16",
	FormatYV411:  "YV411",
	FormatYV24:   "YV24",
	FormatY8:     "Y8",
}

// Valid reports whether f is one of the declared formats.
func (f Format) Valid() bool {
	return f >= 0 && int(f) < len(geometries)
}

// Geometry returns the layout descriptor of f. It panics on an invalid
// format; validate user input with Valid or ParseFormat first.
func (f Format) Geometry() Geometry {
	return geometries[f]
}

func (f Format) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formatNames[f]
}

// ParseFormat resolves a case-insensitive format name. "RGB32" and
// "RGB24" are accepted for the packed RGB formats.
func ParseFormat(name string) (Format, error) {
	switch strings.ToUpper(name) {
	case "RGB32":
		return FormatBGRA32, nil
	case "RGB24":
		return FormatBGR24, nil
	}
	for f, n := range formatNames {
		if strings.EqualFold(n, name) {
			return Format(f), nil
		}
	}
	return 0, fmt.Errorf("clutmap: format %q: %w", name, ErrUnsupportedFormat)
}

// checkDimensions verifies that a width x height frame fits whole
// macropixels of g. With interlaced, each field must also fit. what
// names the frame in the error.
func (g Geometry) checkDimensions(what string, f Format, width, height int, interlaced bool) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("clutmap: %s %s %dx%d must have positive size: %w",
			f, what, width, height, ErrInvalidDimensions)
	}
	if width%g.SubW != 0 {
		return fmt.Errorf("clutmap: %s %s width %d must be a multiple of %d: %w",
			f, what, width, g.SubW, ErrInvalidDimensions)
	}
	hmod := g.SubH
	if interlaced {
		hmod *= 2
	}
	if height%hmod != 0 {
		if interlaced {
			return fmt.Errorf("clutmap: interlaced %s %s height %d must be a multiple of %d: %w",
				f, what, height, hmod, ErrInvalidDimensions)
		}
		return fmt.Errorf("clutmap: %s %s height %d must be a multiple of %d: %w",
			f, what, height, hmod, ErrInvalidDimensions)
	}
	return nil
}
