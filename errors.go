package clutmap

import "errors"

// Construction errors. Filters wrap these with the offending parameter
// and the expected constraint; classify with errors.Is.
var (
	// ErrEmptyPalette indicates the palette frame produced no reference colors.
	ErrEmptyPalette = errors.New("empty palette")

	// ErrFormatMismatch indicates two clips, or a clip and a table, disagree on format.
	ErrFormatMismatch = errors.New("format mismatch")

	// ErrUnsupportedFormat indicates an unknown Format value or name.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrInvalidDimensions indicates a width or height the format cannot hold.
	ErrInvalidDimensions = errors.New("invalid dimensions")

	// ErrFrameOutOfRange indicates a frame index outside the clip.
	ErrFrameOutOfRange = errors.New("frame out of range")
)

// Filter parameter errors.
var (
	// ErrInvalidTileSize indicates a mosaic tile size the clip cannot be divided into.
	ErrInvalidTileSize = errors.New("invalid tile size")

	// ErrMetricUnsupported indicates an unknown distance metric, or one the
	// format family cannot use.
	ErrMetricUnsupported = errors.New("metric unsupported")

	// ErrReduceUnsupported indicates an unknown palette reduction method.
	ErrReduceUnsupported = errors.New("reduce method unsupported")

	// ErrCorruptTable indicates restored table arrays that no build could produce.
	ErrCorruptTable = errors.New("corrupt table")
)
